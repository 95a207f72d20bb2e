package dto

import "github.com/oktel/attendance-report/internal/models"

// UploadFileRequest carries the form fields sent alongside the file part.
type UploadFileRequest struct {
	ChannelID string `form:"channel_id" validate:"required,max=64"`
}

// UploadFileResponse mirrors the chat server's upload reply.
type UploadFileResponse struct {
	FileInfos []models.FileInfo `json:"file_infos"`
}
