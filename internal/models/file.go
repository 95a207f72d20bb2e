package models

import "time"

// FileInfo is the metadata of an uploaded attachment.
type FileInfo struct {
	ID        string    `db:"id" json:"id"`
	ChannelID string    `db:"channel_id" json:"channel_id"`
	Name      string    `db:"name" json:"name"`
	Extension string    `db:"extension" json:"extension"`
	MimeType  string    `db:"mime_type" json:"mime_type"`
	Size      int64     `db:"size" json:"size"`
	Path      string    `db:"path" json:"-"`
	CreatedBy string    `db:"created_by" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"-"`
	// CreateAt mirrors CreatedAt as epoch milliseconds, the chat server's wire convention.
	CreateAt int64 `db:"-" json:"create_at"`
}

// IsImage reports whether the file can be previewed inline.
func (f FileInfo) IsImage() bool {
	return len(f.MimeType) > 6 && f.MimeType[:6] == "image/"
}
