package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beefline/api/internal/config"
	"beefline/api/internal/ids"
	"beefline/api/internal/media/pool"
	"beefline/api/internal/media/sniffer"
	"beefline/api/internal/media/transcode"
	"beefline/api/internal/media/validate"
	"beefline/api/internal/models"
	"beefline/api/internal/repository"
	"beefline/api/internal/storage"
)

// ImageStore is the slice of the image repository the media service
// depends on.
type ImageStore interface {
	Create(ctx context.Context, img models.CattleImage) error
	SetPrimary(ctx context.Context, cattleID, imageID string) error
	GetByID(ctx context.Context, cattleID, imageID string) (models.CattleImage, error)
	Delete(ctx context.Context, cattleID, imageID string) error
	CountPrimary(ctx context.Context, cattleID string) (int, error)
}

type DocumentStore interface {
	Create(ctx context.Context, doc models.HealthDocument) error
	GetByID(ctx context.Context, cattleID, documentID string) (models.HealthDocument, error)
	Delete(ctx context.Context, cattleID, documentID string) error
}

// BlobStore is the slice of the object store the media service uses.
type BlobStore interface {
	Put(ctx context.Context, bucket, objectKey string, data []byte, contentType string) error
	Remove(ctx context.Context, bucket, objectKey string) error
	ImageBucket() string
	DocumentBucket() string
}

type MediaService struct {
	images  ImageStore
	docs    DocumentStore
	store   BlobStore
	pool    *pool.Pool
	locks   *listingLocks
	timeout time.Duration
	log     zerolog.Logger
}

func NewMediaService(images ImageStore, docs DocumentStore, store BlobStore, cfg config.MediaConfig, log zerolog.Logger) *MediaService {
	return &MediaService{
		images:  images,
		docs:    docs,
		store:   store,
		pool:    pool.New(cfg.Workers),
		locks:   newListingLocks(),
		timeout: cfg.TranscodeTimeout,
		log:     log,
	}
}

type ImageUploadInput struct {
	CattleID  string
	Filename  string
	Size      int64
	Data      []byte
	Caption   string
	IsPrimary bool
}

// UploadImage runs the full image ingestion path: validate, transcode
// on the bounded pool, store both artifacts, persist the record. The
// two artifacts are stored before the record so a half-finished upload
// never leaves a visible row pointing at missing objects.
func (s *MediaService) UploadImage(ctx context.Context, input ImageUploadInput) (models.CattleImage, error) {
	decoded, err := validate.Image(validate.Candidate{
		Filename:     input.Filename,
		DeclaredSize: input.Size,
		Data:         input.Data,
	})
	if err != nil {
		return models.CattleImage{}, err
	}

	var result transcode.Result
	err = s.pool.Do(ctx, func() error {
		tctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		var terr error
		result, terr = transcode.Produce(tctx, decoded, input.Filename)
		return terr
	})
	if err != nil {
		// Validation passed but processing failed: an internal fault,
		// logged apart from user-input rejections.
		s.log.Error().Err(err).Str("cattle_id", input.CattleID).Str("filename", input.Filename).Msg("transcode failed")
		return models.CattleImage{}, err
	}

	imageID := ids.New()
	bucket := s.store.ImageBucket()
	displayKey := storage.ObjectKey(imageID, result.Display.Filename)
	thumbKey := storage.ObjectKey(imageID, result.Thumbnail.Filename)

	if err := s.store.Put(ctx, bucket, displayKey, result.Display.Data, result.Display.ContentType); err != nil {
		return models.CattleImage{}, fmt.Errorf("store display: %w", err)
	}
	if err := s.store.Put(ctx, bucket, thumbKey, result.Thumbnail.Data, result.Thumbnail.ContentType); err != nil {
		if rmErr := s.store.Remove(ctx, bucket, displayKey); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("object_key", displayKey).Msg("orphan cleanup failed")
		}
		return models.CattleImage{}, fmt.Errorf("store thumbnail: %w", err)
	}

	record := models.CattleImage{
		ID:           imageID,
		CattleID:     input.CattleID,
		Bucket:       bucket,
		ObjectKey:    displayKey,
		ThumbnailKey: thumbKey,
		Filename:     result.Display.Filename,
		SizeBytes:    result.Display.Size(),
		Caption:      input.Caption,
		IsPrimary:    input.IsPrimary,
		UploadedAt:   time.Now().UTC(),
	}

	unlock := s.locks.lock(input.CattleID)
	err = s.images.Create(ctx, record)
	unlock()
	if err != nil {
		for _, key := range []string{displayKey, thumbKey} {
			if rmErr := s.store.Remove(ctx, bucket, key); rmErr != nil {
				s.log.Warn().Err(rmErr).Str("object_key", key).Msg("orphan cleanup failed")
			}
		}
		return models.CattleImage{}, fmt.Errorf("save image record: %w", err)
	}

	if input.IsPrimary {
		s.assertPrimaryInvariant(ctx, input.CattleID)
	}

	return record, nil
}

// SetPrimary promotes one image to primary, demoting its siblings in
// the same transaction. Requests for the same listing serialize on a
// per-listing lock; distinct listings never contend.
func (s *MediaService) SetPrimary(ctx context.Context, cattleID, imageID string) error {
	unlock := s.locks.lock(cattleID)
	defer unlock()

	if err := s.images.SetPrimary(ctx, cattleID, imageID); err != nil {
		return err
	}

	s.assertPrimaryInvariant(ctx, cattleID)
	return nil
}

// assertPrimaryInvariant is a defensive consistency check; a violation
// here means a bug in the write path, so it is logged, never surfaced
// to the caller.
func (s *MediaService) assertPrimaryInvariant(ctx context.Context, cattleID string) {
	count, err := s.images.CountPrimary(ctx, cattleID)
	if err != nil {
		s.log.Warn().Err(err).Str("cattle_id", cattleID).Msg("primary invariant check failed")
		return
	}
	if count != 1 {
		s.log.Error().
			Err(repository.ErrPrimaryInvariant).
			Str("cattle_id", cattleID).
			Int("primary_count", count).
			Msg("primary image invariant violated")
	}
}

func (s *MediaService) DeleteImage(ctx context.Context, cattleID, imageID string) error {
	img, err := s.images.GetByID(ctx, cattleID, imageID)
	if err != nil {
		return err
	}

	if err := s.images.Delete(ctx, cattleID, imageID); err != nil {
		return err
	}

	for _, key := range []string{img.ObjectKey, img.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := s.store.Remove(ctx, img.Bucket, key); err != nil {
			s.log.Warn().Err(err).Str("object_key", key).Msg("remove stored object failed")
		}
	}
	return nil
}

type DocumentUploadInput struct {
	CattleID     string
	Filename     string
	Size         int64
	Data         []byte
	DocumentType models.DocumentType
	DocumentName string
	IssueDate    *time.Time
	ExpiryDate   *time.Time
	Notes        string
}

// UploadDocument stores a health document unmodified; only validation
// applies, no transcoding.
func (s *MediaService) UploadDocument(ctx context.Context, input DocumentUploadInput) (models.HealthDocument, error) {
	err := validate.Document(validate.Candidate{
		Filename:     input.Filename,
		DeclaredSize: input.Size,
		Data:         input.Data,
	})
	if err != nil {
		return models.HealthDocument{}, err
	}

	contentType := "application/octet-stream"
	head := input.Data
	if len(head) > 512 {
		head = head[:512]
	}
	if detected, err := sniffer.DetectHead(head); err == nil {
		contentType = detected.MIME
	}

	documentID := ids.New()
	bucket := s.store.DocumentBucket()
	objectKey := storage.ObjectKey(documentID, input.Filename)

	if err := s.store.Put(ctx, bucket, objectKey, input.Data, contentType); err != nil {
		return models.HealthDocument{}, fmt.Errorf("store document: %w", err)
	}

	record := models.HealthDocument{
		ID:           documentID,
		CattleID:     input.CattleID,
		DocumentType: input.DocumentType,
		Bucket:       bucket,
		ObjectKey:    objectKey,
		DocumentName: input.DocumentName,
		IssueDate:    input.IssueDate,
		ExpiryDate:   input.ExpiryDate,
		Notes:        input.Notes,
		UploadedAt:   time.Now().UTC(),
	}

	if err := s.docs.Create(ctx, record); err != nil {
		if rmErr := s.store.Remove(ctx, bucket, objectKey); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("object_key", objectKey).Msg("orphan cleanup failed")
		}
		return models.HealthDocument{}, fmt.Errorf("save document record: %w", err)
	}

	return record, nil
}

func (s *MediaService) DeleteDocument(ctx context.Context, cattleID, documentID string) error {
	doc, err := s.docs.GetByID(ctx, cattleID, documentID)
	if err != nil {
		return err
	}

	if err := s.docs.Delete(ctx, cattleID, documentID); err != nil {
		return err
	}

	if err := s.store.Remove(ctx, doc.Bucket, doc.ObjectKey); err != nil {
		s.log.Warn().Err(err).Str("object_key", doc.ObjectKey).Msg("remove stored object failed")
	}
	return nil
}
