package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stitch-ai/internal/types"

	"github.com/go-resty/resty/v2"
)

// WebhookNotifier 将任务状态事件以 JSON POST 到配置的回调地址。
// 地址为空时不发送。
type WebhookNotifier struct {
	client     *resty.Client
	webhookUrl string
}

func NewWebhookNotifier(webhookUrl string, timeout time.Duration) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	return &WebhookNotifier{
		client:     client,
		webhookUrl: strings.TrimSpace(webhookUrl),
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.webhookUrl != ""
}

// NotifyTaskState posts the event to the webhook. Delivery failures are
// returned for the caller to log and must never fail the task itself.
func (n *WebhookNotifier) NotifyTaskState(ctx context.Context, event types.TaskStateEvent) error {
	if !n.Enabled() {
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.webhookUrl)
	if err != nil {
		return fmt.Errorf("回调请求失败 webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("回调返回错误状态 webhook returned status %d", resp.StatusCode())
	}
	return nil
}
