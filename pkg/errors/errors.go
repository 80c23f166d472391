// Package errors defines the coded error type every layer hands to the
// API envelope. 约定：message 中英双语，code 按子系统分段。
package errors

import (
	"errors"
	"fmt"
)

const (
	// General errors (1000-1099)
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002

	// Clip metadata errors (1100-1199)
	CodeMetaParseFailed  = 1100
	CodeClipFileNotFound = 1102
	CodeEmptyBatch       = 1103
	CodeMetaGenFailed    = 1104

	// Sequencing errors (1200-1299)
	CodeNoUsableClips = 1202

	// Loop detection errors (1300-1399)
	CodeLoopDetectFailed = 1300

	// Render/ffmpeg errors (1400-1499)
	CodeRenderFailed     = 1400
	CodeGraphBuildFailed = 1402
	CodeFfmpegNotFound   = 1403

	// Storage errors (1500-1599)
	CodeDBError        = 1500
	CodeFileNotFound   = 1501
	CodeFileWriteError = 1502

	// Frame analysis errors (1600-1699)
	CodeAnalysisFailed   = 1600
	CodeAnalysisTimeout  = 1601
	CodeLLMQuotaExceeded = 1602
)

// AppError is a coded error. Code drives the API envelope, Detail
// carries operator-facing context that stays out of the user message.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	s := fmt.Sprintf("[%d] %s", e.Code, e.Message)
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a coded error without a cause.
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap attaches a code and a bilingual message to an underlying error.
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// WrapWithDetail is Wrap plus operator-facing detail.
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Detail: detail, Cause: cause}
}

// HasCode reports whether the outermost coded error in err's chain
// carries the given code.
func HasCode(err error, code int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// GetCode returns the outermost error code, CodeUnknown for plain errors.
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage returns the coded message, or err.Error() for plain errors.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// ErrEmptyBatch is returned as-is by the metadata normalizer; callers
// match it by code.
var ErrEmptyBatch = New(CodeEmptyBatch, "片段列表为空 Clip batch is empty")
