package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nilesh-agrahari/SecureFileShare/internal/middleware"
	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
	"github.com/nilesh-agrahari/SecureFileShare/internal/policy"
	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/service"
)

type documentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Extension  string    `json:"extension"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploaderID *string   `json:"uploaderId,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func toDocumentResponse(doc models.Document) documentResponse {
	return documentResponse{
		ID:         doc.ID,
		FileName:   doc.FileName,
		Extension:  doc.Extension,
		SizeBytes:  doc.SizeBytes,
		UploaderID: doc.UploaderID,
		UploadedAt: doc.UploadedAt,
	}
}

func (h HandlerSet) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	defer file.Close()

	doc, err := h.documentService.Upload(c.Request.Context(), middleware.CurrentPrincipal(c), service.UploadInput{
		FileName: header.Filename,
		Body:     file,
		Size:     header.Size,
	})
	if err != nil {
		h.writeDocumentError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "File uploaded successfully.",
		"document": toDocumentResponse(doc),
	})
}

func (h HandlerSet) ListDocuments(c *gin.Context) {
	docs, err := h.documentService.List(c.Request.Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		h.writeDocumentError(c, err, "list failed")
		return
	}

	items := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDocumentResponse(doc))
	}

	c.JSON(http.StatusOK, gin.H{"documents": items})
}

func (h HandlerSet) DownloadDocument(c *gin.Context) {
	doc, stream, err := h.documentService.Open(c.Request.Context(), middleware.CurrentPrincipal(c), policy.ActionDownloadDocument, c.Param("id"))
	if err != nil {
		h.writeDocumentError(c, err, "download failed")
		return
	}

	h.streamDocument(c, doc, stream, "attachment")
}

func (h HandlerSet) ViewDocument(c *gin.Context) {
	doc, stream, err := h.documentService.Open(c.Request.Context(), middleware.CurrentPrincipal(c), policy.ActionViewDocument, c.Param("id"))
	if err != nil {
		h.writeDocumentError(c, err, "view failed")
		return
	}

	h.streamDocument(c, doc, stream, "inline")
}

func (h HandlerSet) DeleteDocument(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("id")); err != nil {
		h.writeDocumentError(c, err, "delete failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully."})
}

func (h HandlerSet) IssueLink(c *gin.Context) {
	url, err := h.linkService.Issue(c.Request.Context(), middleware.CurrentPrincipal(c), c.Param("id"))
	if err != nil {
		h.writeDocumentError(c, err, "issue link failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func (h HandlerSet) RedeemLink(c *gin.Context) {
	doc, stream, err := h.linkService.Redeem(c.Request.Context(), c.Param("token"))
	if err != nil {
		// Tamper, expiry and revocation stay distinct in the logs but
		// collapse into one message for the caller.
		switch {
		case errors.Is(err, service.ErrLinkInvalid),
			errors.Is(err, service.ErrLinkExpired),
			errors.Is(err, service.ErrLinkRevoked):
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired link"})
		case errors.Is(err, repository.ErrDocumentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		default:
			h.log.Error().Err(err).Msg("link redemption failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
		return
	}

	h.streamDocument(c, doc, stream, "attachment")
}

func (h HandlerSet) streamDocument(c *gin.Context, doc models.Document, stream io.ReadCloser, disposition string) {
	defer stream.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("%s; filename=%q", disposition, doc.FileName),
	}
	c.DataFromReader(http.StatusOK, doc.SizeBytes, service.ContentTypeFor(doc.Extension), stream, headers)
}

func (h HandlerSet) writeDocumentError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, policy.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
	case errors.Is(err, service.ErrUnsupportedType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Allowed: pptx, docx, xlsx."})
	case errors.Is(err, repository.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	default:
		h.log.Error().Err(err).Msg(logMsg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
