package console

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Uploader posts one file to a channel and returns the stored file id.
type Uploader interface {
	UploadFile(ctx context.Context, channelID, filename string, content io.Reader) (string, error)
}

// UploadState is a snapshot of a FileUploadSetting.
type UploadState struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Uploading  bool   `json:"uploading"`
	FileName   string `json:"file_name"`
	PreviewURL string `json:"preview_url,omitempty"`
	Error      string `json:"error,omitempty"`
}

// FileUploadSetting is a single-file form control. It reports the stored file
// id, or "" after a failure or removal, through onChange.
type FileUploadSetting struct {
	mu          sync.Mutex
	name        string
	channelID   string
	uploader    Uploader
	onChange    func(name, value string)
	failMessage string
	logger      *zap.Logger

	value      string
	uploading  bool
	fileName   string
	previewURL string
	errMsg     string
}

// NewFileUploadSetting builds the control. failMessage is the localized text
// shown after a failed upload.
func NewFileUploadSetting(name, channelID string, uploader Uploader, failMessage string, onChange func(name, value string), logger *zap.Logger) *FileUploadSetting {
	if onChange == nil {
		onChange = func(string, string) {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileUploadSetting{
		name:        name,
		channelID:   channelID,
		uploader:    uploader,
		onChange:    onChange,
		failMessage: failMessage,
		logger:      logger,
	}
}

// Upload stores data as filename. Images get a data URI preview while the
// upload runs; a failure clears the file name and preview.
func (f *FileUploadSetting) Upload(ctx context.Context, filename, mimeType string, data []byte) error {
	f.mu.Lock()
	f.errMsg = ""
	f.uploading = true
	f.fileName = filename
	if strings.HasPrefix(mimeType, "image/") {
		f.previewURL = "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
	}
	f.mu.Unlock()

	id, err := f.uploader.UploadFile(ctx, f.channelID, filename, bytes.NewReader(data))

	f.mu.Lock()
	f.uploading = false
	if err != nil {
		f.errMsg = f.failMessage
		f.fileName = ""
		f.previewURL = ""
		f.value = ""
		f.mu.Unlock()
		f.logger.Warn("file upload failed", zap.String("setting", f.name), zap.String("file", filename), zap.Error(err))
		f.onChange(f.name, "")
		return err
	}
	f.value = id
	f.mu.Unlock()
	f.onChange(f.name, id)
	return nil
}

// Remove clears all local state and reports an empty value.
func (f *FileUploadSetting) Remove() {
	f.mu.Lock()
	f.fileName = ""
	f.previewURL = ""
	f.errMsg = ""
	f.value = ""
	f.mu.Unlock()
	f.onChange(f.name, "")
}

// State snapshots the control.
func (f *FileUploadSetting) State() UploadState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return UploadState{
		Name:       f.name,
		Value:      f.value,
		Uploading:  f.uploading,
		FileName:   f.fileName,
		PreviewURL: f.previewURL,
		Error:      f.errMsg,
	}
}
