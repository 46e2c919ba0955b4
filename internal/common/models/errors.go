package models

import "errors"

// Failure taxonomy shared by the backend and the client core. Callers wrap
// these with fmt.Errorf("...: %w") and classify with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrPermission       = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrTransient        = errors.New("temporarily unavailable")
	ErrUpload           = errors.New("upload failed")
	ErrDevicePermission = errors.New("device permission denied")
)
