package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "stitch-ai/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cannedCompletion = `{
  "id": "chatcmpl-test",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [
    {
      "index": 0,
      "message": {
        "role": "assistant",
        "content": "` + "```json\\n{\\\"subject\\\": \\\"ocean waves\\\", \\\"action\\\": \\\"crashing on rocks\\\", \\\"motion\\\": \\\"dynamic\\\", \\\"lighting\\\": \\\"sunny\\\", \\\"tone\\\": \\\"energetic\\\", \\\"scene_type\\\": \\\"coastline\\\", \\\"dominant_colors\\\": [\\\"blue\\\", \\\"white\\\", \\\"gray\\\"]}\\n```" + `"
      },
      "finish_reason": "stop"
    }
  ]
}`

func writeTestImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0xe0}, 0o644))
	return path
}

func TestDescribeFrame(t *testing.T) {
	var gotReq openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, cannedCompletion)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-test", "gpt-4o-mini", nil, 5*time.Second)
	attrs, err := client.DescribeFrame(context.Background(), writeTestImage(t, "frame.jpg"))
	require.NoError(t, err)

	assert.Equal(t, "ocean waves", attrs.Subject)
	assert.Equal(t, "dynamic", attrs.Motion)
	assert.Equal(t, "sunny", attrs.Lighting)
	assert.Equal(t, []string{"blue", "white", "gray"}, attrs.DominantColors)

	require.Equal(t, "gpt-4o-mini", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "dominant_colors")

	user := gotReq.Messages[1]
	require.Len(t, user.MultiContent, 2)
	assert.Equal(t, framePrompt, user.MultiContent[0].Text)
	require.NotNil(t, user.MultiContent[1].ImageURL)
	assert.True(t, strings.HasPrefix(user.MultiContent[1].ImageURL.URL, "data:image/jpeg;base64,"))
}

func TestDescribeFrameQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": {"message": "Rate limit reached", "type": "tokens"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-test", "gpt-4o-mini", nil, 5*time.Second)
	_, err := client.DescribeFrame(context.Background(), writeTestImage(t, "frame.jpg"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeLLMQuotaExceeded, apperrors.GetCode(err))
}

func TestDescribeFrameEmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/v1", "sk-test", "gpt-4o-mini", nil, 5*time.Second)
	_, err := client.DescribeFrame(context.Background(), writeTestImage(t, "frame.jpg"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAnalysisFailed, apperrors.GetCode(err))
}

func TestDescribeFrameImageMissing(t *testing.T) {
	client := NewClient("http://127.0.0.1:1/v1", "sk-test", "gpt-4o-mini", nil, time.Second)
	_, err := client.DescribeFrame(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeAnalysisFailed, apperrors.GetCode(err))
}

func TestParseAttributes(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{
			name: "fenced json",
			text: "```json\n{\"subject\": \"a dog\", \"motion\": \"fast\"}\n```",
			want: "a dog",
		},
		{
			name: "raw json",
			text: `{"subject": "a cat", "motion": "still"}`,
			want: "a cat",
		},
		{
			name: "json wrapped in prose",
			text: `Here is the analysis: {"subject": "a bird"} hope that helps`,
			want: "a bird",
		},
		{
			name:    "no json at all",
			text:    "the frame shows nothing parseable",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs, err := parseAttributes(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeAnalysisFailed, apperrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, attrs.Subject)
		})
	}
}

func TestEncodeDataURL(t *testing.T) {
	dir := t.TempDir()
	raw := []byte{0x01, 0x02, 0x03, 0x04}

	jpgPath := filepath.Join(dir, "frame.jpg")
	require.NoError(t, os.WriteFile(jpgPath, raw, 0o644))
	pngPath := filepath.Join(dir, "frame.PNG")
	require.NoError(t, os.WriteFile(pngPath, raw, 0o644))

	jpgUrl, err := encodeDataURL(jpgPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(jpgUrl, "data:image/jpeg;base64,"))

	pngUrl, err := encodeDataURL(pngPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pngUrl, "data:image/png;base64,"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(jpgUrl, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = encodeDataURL(filepath.Join(dir, "missing.jpg"))
	require.Error(t, err)
}
