package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oktel/attendance-report/internal/dto"
	"github.com/oktel/attendance-report/internal/models"
	"github.com/oktel/attendance-report/internal/service"
	appErrors "github.com/oktel/attendance-report/pkg/errors"
	"github.com/oktel/attendance-report/pkg/response"
)

type fileService interface {
	Upload(ctx context.Context, req dto.UploadFileRequest, upload service.FileUpload, actor *models.JWTClaims) (*models.FileInfo, error)
	Open(ctx context.Context, id string) (*service.FileDownload, error)
}

// FileHandler accepts attachment uploads and serves them back.
type FileHandler struct {
	service fileService
}

// NewFileHandler constructs the handler.
func NewFileHandler(svc fileService) *FileHandler {
	return &FileHandler{service: svc}
}

// Upload godoc
// @Summary Upload one file to a channel
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param channel_id formData string true "Channel ID"
// @Param files formData file true "File"
// @Success 201 {object} dto.UploadFileResponse
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UploadFileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid upload payload"))
		return
	}
	fileHeader, err := c.FormFile("files")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Internal(err, "failed to open file"))
		return
	}
	defer src.Close()

	reader, ok := src.(io.ReadSeeker)
	if !ok {
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			response.Error(c, appErrors.Internal(readErr, "failed to buffer file"))
			return
		}
		reader = bytes.NewReader(buf)
	}
	info, err := h.service.Upload(c.Request.Context(), req, service.FileUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Content:  reader,
	}, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusCreated, dto.UploadFileResponse{FileInfos: []models.FileInfo{*info}})
}

// Get godoc
// @Summary Stream a stored file
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {file} file
// @Router /files/{id} [get]
func (h *FileHandler) Get(c *gin.Context) {
	download, err := h.service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	disposition := "attachment"
	if download.Info.IsImage() {
		disposition = "inline"
	}
	c.Header("Cache-Control", "private, max-age=300")
	c.DataFromReader(http.StatusOK, download.Info.Size, download.Info.MimeType, download.File, map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, download.Info.Name),
	})
}
