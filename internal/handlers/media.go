package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"beefline/api/internal/media/transcode"
	"beefline/api/internal/media/validate"
	"beefline/api/internal/models"
	"beefline/api/internal/repository"
	"beefline/api/internal/service"
)

type imageResponse struct {
	ID           string `json:"id"`
	ObjectKey    string `json:"objectKey"`
	ThumbnailKey string `json:"thumbnailKey,omitempty"`
	Filename     string `json:"filename"`
	SizeBytes    int64  `json:"sizeBytes"`
	Caption      string `json:"caption,omitempty"`
	IsPrimary    bool   `json:"isPrimary"`
	UploadedAt   string `json:"uploadedAt"`
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validate.MaxImageBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload failed"})
		return
	}

	size := header.Size
	if int64(len(data)) > size {
		size = int64(len(data))
	}

	record, err := h.mediaService.UploadImage(c.Request.Context(), service.ImageUploadInput{
		CattleID:  listing.ID,
		Filename:  header.Filename,
		Size:      size,
		Data:      data,
		Caption:   c.PostForm("caption"),
		IsPrimary: c.PostForm("isPrimary") == "true",
	})
	if err != nil {
		h.writeMediaError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": toImageResponse(record)})
}

func (h HandlerSet) DeleteImage(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	err := h.mediaService.DeleteImage(c.Request.Context(), listing.ID, c.Param("imageId"))
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) SetPrimaryImage(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	err := h.mediaService.SetPrimary(c.Request.Context(), listing.ID, c.Param("imageId"))
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "primary image updated"})
}

type documentResponse struct {
	ID           string `json:"id"`
	DocumentType string `json:"documentType"`
	ObjectKey    string `json:"objectKey"`
	DocumentName string `json:"documentName"`
	IssueDate    string `json:"issueDate,omitempty"`
	ExpiryDate   string `json:"expiryDate,omitempty"`
	IsExpired    bool   `json:"isExpired"`
	Notes        string `json:"notes,omitempty"`
	UploadedAt   string `json:"uploadedAt"`
}

func (h HandlerSet) UploadDocument(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	docType := models.DocumentType(c.PostForm("documentType"))
	if !models.ValidDocumentType(docType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown document type"})
		return
	}

	documentName := c.PostForm("documentName")
	if documentName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documentName required"})
		return
	}

	file, header, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, validate.MaxDocumentBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read upload failed"})
		return
	}

	size := header.Size
	if int64(len(data)) > size {
		size = int64(len(data))
	}

	issueDate, ok := optionalDate(c, "issueDate")
	if !ok {
		return
	}
	expiryDate, ok := optionalDate(c, "expiryDate")
	if !ok {
		return
	}

	record, err := h.mediaService.UploadDocument(c.Request.Context(), service.DocumentUploadInput{
		CattleID:     listing.ID,
		Filename:     header.Filename,
		Size:         size,
		Data:         data,
		DocumentType: docType,
		DocumentName: documentName,
		IssueDate:    issueDate,
		ExpiryDate:   expiryDate,
		Notes:        c.PostForm("notes"),
	})
	if err != nil {
		h.writeMediaError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"document": toDocumentResponse(record)})
}

func (h HandlerSet) DeleteDocument(c *gin.Context) {
	listing, ok := h.ownListing(c)
	if !ok {
		return
	}

	err := h.mediaService.DeleteDocument(c.Request.Context(), listing.ID, c.Param("documentId"))
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// writeMediaError maps the pipeline's error classes to responses:
// validation rejections are the caller's fault, transcode failures are
// ours.
func (h HandlerSet) writeMediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, validate.ErrSizeLimitExceeded),
		errors.Is(err, validate.ErrUnsupportedFormat),
		errors.Is(err, validate.ErrCorruptImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, transcode.ErrTranscodeFailure):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "image processing failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func optionalDate(c *gin.Context, field string) (*time.Time, bool) {
	value := c.PostForm(field)
	if value == "" {
		return nil, true
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": field + " must be YYYY-MM-DD"})
		return nil, false
	}
	return &parsed, true
}

func toImageResponse(img models.CattleImage) imageResponse {
	return imageResponse{
		ID:           img.ID,
		ObjectKey:    img.ObjectKey,
		ThumbnailKey: img.ThumbnailKey,
		Filename:     img.Filename,
		SizeBytes:    img.SizeBytes,
		Caption:      img.Caption,
		IsPrimary:    img.IsPrimary,
		UploadedAt:   img.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func toDocumentResponse(doc models.HealthDocument) documentResponse {
	resp := documentResponse{
		ID:           doc.ID,
		DocumentType: string(doc.DocumentType),
		ObjectKey:    doc.ObjectKey,
		DocumentName: doc.DocumentName,
		IsExpired:    doc.IsExpired(time.Now()),
		Notes:        doc.Notes,
		UploadedAt:   doc.UploadedAt.UTC().Format(time.RFC3339),
	}
	if doc.IssueDate != nil {
		resp.IssueDate = doc.IssueDate.Format("2006-01-02")
	}
	if doc.ExpiryDate != nil {
		resp.ExpiryDate = doc.ExpiryDate.Format("2006-01-02")
	}
	return resp
}
