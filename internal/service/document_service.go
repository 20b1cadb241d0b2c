package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/ids"
	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/policy"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// contentTypes maps the accepted office-document extensions to their MIME
// types. Membership in this map is the upload gate.
var contentTypes = map[string]string{
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type DocumentStore interface {
	Create(ctx context.Context, doc models.Document) error
	GetByID(ctx context.Context, id string) (models.Document, error)
	List(ctx context.Context) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

type BlobStore interface {
	Bucket() string
	Put(ctx context.Context, objectKey string, r io.Reader, size int64, contentType string) error
	OpenRead(ctx context.Context, objectKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, objectKey string) error
}

type DocumentService struct {
	docs  DocumentStore
	blobs BlobStore
	authz *policy.Engine
	log   zerolog.Logger
}

func NewDocumentService(docs DocumentStore, blobs BlobStore, authz *policy.Engine, log zerolog.Logger) *DocumentService {
	return &DocumentService{
		docs:  docs,
		blobs: blobs,
		authz: authz,
		log:   log,
	}
}

type UploadInput struct {
	FileName string
	Body     io.Reader
	Size     int64
}

// Upload stores the blob and then the metadata row. The extension check is
// the literal suffix after the last dot, case-sensitive; a name without a
// dot has no extension and is rejected.
func (s *DocumentService) Upload(ctx context.Context, p policy.Principal, input UploadInput) (models.Document, error) {
	if err := s.authz.Authorize(p, policy.ActionUploadDocument); err != nil {
		return models.Document{}, err
	}
	if input.Body == nil || input.FileName == "" {
		return models.Document{}, fmt.Errorf("%w: no file provided", ErrUnsupportedType)
	}

	ext := extension(input.FileName)
	contentType, ok := contentTypes[ext]
	if !ok {
		return models.Document{}, fmt.Errorf("%w: allowed: pptx, docx, xlsx", ErrUnsupportedType)
	}

	docID := ids.New()
	objectKey := buildObjectKey(docID, ext)

	if err := s.blobs.Put(ctx, objectKey, input.Body, input.Size, contentType); err != nil {
		return models.Document{}, fmt.Errorf("store blob: %w", err)
	}

	doc := models.Document{
		ID:         docID,
		Bucket:     s.blobs.Bucket(),
		ObjectKey:  objectKey,
		FileName:   input.FileName,
		Extension:  ext,
		SizeBytes:  input.Size,
		UploadedAt: time.Now().UTC(),
	}
	if p.Authenticated {
		uploader := p.AccountID
		doc.UploaderID = &uploader
	}

	if err := s.docs.Create(ctx, doc); err != nil {
		return models.Document{}, fmt.Errorf("save metadata: %w", err)
	}

	s.log.Info().Str("document_id", doc.ID).Str("file_name", doc.FileName).Msg("document uploaded")
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (models.Document, error) {
	return s.docs.GetByID(ctx, id)
}

func (s *DocumentService) List(ctx context.Context, p policy.Principal) ([]models.Document, error) {
	if err := s.authz.Authorize(p, policy.ActionListDocuments); err != nil {
		return nil, err
	}
	return s.docs.List(ctx)
}

// Open returns the document and a streaming reader over its blob. A blob
// deleted between the metadata lookup and the read surfaces as a stream
// error downstream.
func (s *DocumentService) Open(ctx context.Context, p policy.Principal, action policy.Action, id string) (models.Document, io.ReadCloser, error) {
	if err := s.authz.Authorize(p, action); err != nil {
		return models.Document{}, nil, err
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return models.Document{}, nil, err
	}

	stream, err := s.blobs.OpenRead(ctx, doc.ObjectKey)
	if err != nil {
		return models.Document{}, nil, err
	}
	return doc, stream, nil
}

// Delete removes the blob first and the metadata row second. If the blob
// delete fails the row stays so the delete can be retried.
func (s *DocumentService) Delete(ctx context.Context, p policy.Principal, id string) error {
	if err := s.authz.Authorize(p, policy.ActionDeleteDocument); err != nil {
		return err
	}

	doc, err := s.docs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Remove(ctx, doc.ObjectKey); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}

	if err := s.docs.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("document_id", id).Msg("document deleted")
	return nil
}

func ContentTypeFor(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

func extension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 {
		return ""
	}
	return fileName[idx+1:]
}

func buildObjectKey(docID string, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(datePrefix, fmt.Sprintf("%s.%s", docID, ext))
}
