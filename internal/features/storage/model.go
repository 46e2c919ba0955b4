package storage

import (
	"time"
)

// Object is the metadata kept for each stored blob. The blob itself lives on
// disk under FS_PATH/<bucket>/<path>.
type Object struct {
	Key        string    `json:"key" bson:"_id"` // <bucket>/<path>
	Bucket     string    `json:"bucket" bson:"bucket"`
	Path       string    `json:"path" bson:"path"`
	Size       int64     `json:"size" bson:"size"`
	MimeType   string    `json:"mime_type" bson:"mime_type"`
	UploadedBy *string   `json:"uploaded_by" bson:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

func objectKey(bucket, path string) string {
	return bucket + "/" + path
}

type SignRequest struct {
	ExpiresIn int64 `json:"expires_in"`
}

type SignResponse struct {
	SignedURL string `json:"signed_url"`
}
