package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"stitch-ai/internal/types"
	apperrors "stitch-ai/pkg/errors"
	"stitch-ai/pkg/util"

	"github.com/sashabaranov/go-openai"
)

// framePrompt 固定的用户指令，与系统提示词配合强制 JSON 输出
const framePrompt = "Analyze this frame and return JSON only."

type Client struct {
	client *openai.Client
	model  string
}

// NewClient 创建视觉模型客户端。baseUrl 为空时使用官方地址，
// proxy 为 nil 时直连。
func NewClient(baseUrl, apiKey, model string, proxy *url.URL, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseUrl != "" {
		cfg.BaseURL = baseUrl
	}

	// 总是配置自定义 HTTP Client 以设置代理和超时
	transport := &http.Transport{}
	if proxy != nil {
		transport.Proxy = http.ProxyURL(proxy)
	}
	cfg.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// DescribeFrame 让视觉模型描述一帧画面，返回结构化属性
func (c *Client) DescribeFrame(ctx context.Context, imagePath string) (types.AttributeSet, error) {
	dataUrl, err := encodeDataURL(imagePath)
	if err != nil {
		return types.AttributeSet{}, apperrors.Wrap(apperrors.CodeAnalysisFailed, "帧图片不可读 frame image not readable", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: types.VisionFramePrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: framePrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: dataUrl,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return types.AttributeSet{}, mapRequestError(err)
	}
	if len(resp.Choices) == 0 {
		return types.AttributeSet{}, apperrors.New(apperrors.CodeAnalysisFailed, "视觉模型没有返回结果 vision reply is empty")
	}

	return parseAttributes(resp.Choices[0].Message.Content)
}

func mapRequestError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return apperrors.Wrap(apperrors.CodeLLMQuotaExceeded, "视觉模型配额不足 vision quota exceeded", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.CodeAnalysisTimeout, "视觉分析超时 vision request timed out", err)
	}
	return apperrors.Wrap(apperrors.CodeAnalysisFailed, "视觉模型调用失败 vision request failed", err)
}

func parseAttributes(text string) (types.AttributeSet, error) {
	cleaned := util.ExtractJsonFromText(text)

	var attrs types.AttributeSet
	if err := json.Unmarshal([]byte(cleaned), &attrs); err != nil {
		return types.AttributeSet{}, apperrors.WrapWithDetail(apperrors.CodeAnalysisFailed, "视觉模型输出不是合法 JSON vision reply is not valid JSON", cleaned, err)
	}
	return attrs, nil
}

func encodeDataURL(imagePath string) (string, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}

	mime := "image/jpeg"
	if strings.EqualFold(filepath.Ext(imagePath), ".png") {
		mime = "image/png"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(raw)), nil
}
