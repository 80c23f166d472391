package handler

import (
	"stitch-ai/internal/dto"
	"stitch-ai/internal/response"
	"stitch-ai/log"
	apperrors "stitch-ai/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) AnalyzeClip(c *gin.Context) {
	var req dto.AnalyzeClipReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("AnalyzeClip ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}

	// 检查配置是否需要重新初始化
	h.reloadServiceIfNeeded()

	data, err := h.Service.AnalyzeClip(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) GenerateMeta(c *gin.Context) {
	var req dto.GenerateMetaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("GenerateMeta ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}

	data, err := h.Service.GenerateFallbackMeta(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) InspectScenes(c *gin.Context) {
	var req dto.InspectScenesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("InspectScenes ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}

	data, err := h.Service.InspectScenes(req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}

func (h *Handler) ProbeManifest(c *gin.Context) {
	var req dto.ProbeManifestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.GetLogger().Error("ProbeManifest ShouldBindJSON err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}

	data, err := h.Service.BuildProbeManifest(c.Request.Context(), req)
	if err != nil {
		response.ErrorResponse(c, err)
		return
	}
	response.Success(c, data)
}
