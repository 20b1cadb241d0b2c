package models

import "time"

// Document is the metadata record for an uploaded file. The bytes live in
// the object store under ObjectKey; the record itself is immutable between
// creation and deletion.
type Document struct {
	ID         string
	Bucket     string
	ObjectKey  string
	FileName   string
	Extension  string
	SizeBytes  int64
	UploaderID *string
	UploadedAt time.Time
}
