// Package response carries the single JSON envelope every API handler
// replies with.
package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "stitch-ai/pkg/errors"
)

// Response 统一响应结构，error 为 0 表示成功
type Response struct {
	Error  int32  `json:"error"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
	Data   any    `json:"data"`
}

// R sends data as-is, for handlers that build their own envelope.
func R(c *gin.Context, data any) {
	c.JSON(200, data)
}

// Success wraps data in a success envelope.
func Success(c *gin.Context, data any) {
	c.JSON(200, Response{
		Error: 0,
		Msg:   "成功 Success",
		Data:  data,
	})
}

// ErrorResponse maps any error onto the envelope. A coded error carries
// its own code and detail; everything else reports CodeUnknown.
func ErrorResponse(c *gin.Context, err error) {
	if err == nil {
		Success(c, nil)
		return
	}

	res := Response{
		Error: int32(apperrors.GetCode(err)),
		Msg:   apperrors.GetMessage(err),
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		res.Detail = appErr.Detail
	}

	c.JSON(200, res)
}
