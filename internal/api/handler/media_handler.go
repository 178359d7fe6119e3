package handler

import (
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	mediaSvc service.MediaService
}

func NewMediaHandler(mediaSvc service.MediaService) *MediaHandler {
	return &MediaHandler{mediaSvc: mediaSvc}
}

// Upload 上传正文图片，返回可直接粘贴的 Markdown
func (s *MediaHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	result, err := s.mediaSvc.UploadImage(c.Request.Context(), file.Filename, file.Size, reader)
	if err != nil {
		log.WarnContext(c.Request.Context(), "media upload failed", "filename", file.Filename, "err", err)
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
