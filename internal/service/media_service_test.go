package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beefline/api/internal/config"
	"beefline/api/internal/media/validate"
	"beefline/api/internal/models"
	"beefline/api/internal/repository"
)

type fakeImageStore struct {
	mu     sync.Mutex
	images map[string]models.CattleImage
	failOn string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{images: make(map[string]models.CattleImage)}
}

func (f *fakeImageStore) Create(_ context.Context, img models.CattleImage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn == "create" {
		return errors.New("create failed")
	}
	if img.IsPrimary {
		f.demoteLocked(img.CattleID)
	}
	f.images[img.ID] = img
	return nil
}

func (f *fakeImageStore) SetPrimary(_ context.Context, cattleID, imageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.images[imageID]
	if !ok || target.CattleID != cattleID {
		return repository.ErrImageNotFound
	}
	f.demoteLocked(cattleID)
	target.IsPrimary = true
	f.images[imageID] = target
	return nil
}

func (f *fakeImageStore) demoteLocked(cattleID string) {
	for id, img := range f.images {
		if img.CattleID == cattleID && img.IsPrimary {
			img.IsPrimary = false
			f.images[id] = img
		}
	}
}

func (f *fakeImageStore) GetByID(_ context.Context, cattleID, imageID string) (models.CattleImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[imageID]
	if !ok || img.CattleID != cattleID {
		return models.CattleImage{}, repository.ErrImageNotFound
	}
	return img, nil
}

func (f *fakeImageStore) Delete(_ context.Context, cattleID, imageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[imageID]
	if !ok || img.CattleID != cattleID {
		return repository.ErrImageNotFound
	}
	delete(f.images, imageID)
	return nil
}

func (f *fakeImageStore) CountPrimary(_ context.Context, cattleID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, img := range f.images {
		if img.CattleID == cattleID && img.IsPrimary {
			count++
		}
	}
	return count, nil
}

type fakeDocumentStore struct {
	mu   sync.Mutex
	docs map[string]models.HealthDocument
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: make(map[string]models.HealthDocument)}
}

func (f *fakeDocumentStore) Create(_ context.Context, doc models.HealthDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentStore) GetByID(_ context.Context, cattleID, documentID string) (models.HealthDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok || doc.CattleID != cattleID {
		return models.HealthDocument{}, repository.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeDocumentStore) Delete(_ context.Context, cattleID, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok || doc.CattleID != cattleID {
		return repository.ErrDocumentNotFound
	}
	delete(f.docs, documentID)
	return nil
}

type storedObject struct {
	data        []byte
	contentType string
}

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	failKey string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string]storedObject)}
}

func (f *fakeBlobStore) Put(_ context.Context, bucket, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKey != "" && strings.Contains(key, f.failKey) {
		return errors.New("put failed")
	}
	f.objects[bucket+"/"+key] = storedObject{data: data, contentType: contentType}
	return nil
}

func (f *fakeBlobStore) Remove(_ context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, bucket+"/"+key)
	return nil
}

func (f *fakeBlobStore) ImageBucket() string    { return "images" }
func (f *fakeBlobStore) DocumentBucket() string { return "documents" }

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestMediaService(images *fakeImageStore, docs *fakeDocumentStore, store *fakeBlobStore) *MediaService {
	cfg := config.MediaConfig{Workers: 2, TranscodeTimeout: 5 * time.Second}
	return NewMediaService(images, docs, store, cfg, zerolog.Nop())
}

func pngUpload(t *testing.T, cattleID, filename string, w, h int) ImageUploadInput {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return ImageUploadInput{
		CattleID: cattleID,
		Filename: filename,
		Size:     int64(buf.Len()),
		Data:     buf.Bytes(),
	}
}

func TestUploadImage(t *testing.T) {
	images := newFakeImageStore()
	store := newFakeBlobStore()
	svc := newTestMediaService(images, newFakeDocumentStore(), store)

	input := pngUpload(t, "cattle-1", "bessie.png", 1600, 900)
	input.Caption = "side view"
	input.IsPrimary = true

	record, err := svc.UploadImage(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "cattle-1", record.CattleID)
	assert.Equal(t, "bessie.jpg", record.Filename)
	assert.True(t, record.IsPrimary)
	assert.True(t, strings.HasSuffix(record.ObjectKey, ".jpg"))
	assert.True(t, strings.HasSuffix(record.ThumbnailKey, "_thumb.jpg"))
	assert.Positive(t, record.SizeBytes)

	assert.Equal(t, 2, store.count(), "display and thumbnail stored")

	count, err := images.CountPrimary(context.Background(), "cattle-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUploadImageRejectsInvalid(t *testing.T) {
	store := newFakeBlobStore()
	svc := newTestMediaService(newFakeImageStore(), newFakeDocumentStore(), store)

	_, err := svc.UploadImage(context.Background(), ImageUploadInput{
		CattleID: "cattle-1",
		Filename: "bessie.gif",
		Size:     100,
		Data:     []byte("gif bytes"),
	})
	assert.ErrorIs(t, err, validate.ErrUnsupportedFormat)
	assert.Zero(t, store.count(), "nothing stored on rejection")
}

func TestUploadImageCleansUpOnThumbnailFailure(t *testing.T) {
	store := newFakeBlobStore()
	store.failKey = "_thumb"
	svc := newTestMediaService(newFakeImageStore(), newFakeDocumentStore(), store)

	_, err := svc.UploadImage(context.Background(), pngUpload(t, "cattle-1", "bessie.png", 100, 100))
	require.Error(t, err)
	assert.Zero(t, store.count(), "display object removed after thumbnail failure")
}

func TestUploadImageCleansUpOnRecordFailure(t *testing.T) {
	images := newFakeImageStore()
	images.failOn = "create"
	store := newFakeBlobStore()
	svc := newTestMediaService(images, newFakeDocumentStore(), store)

	_, err := svc.UploadImage(context.Background(), pngUpload(t, "cattle-1", "bessie.png", 100, 100))
	require.Error(t, err)
	assert.Zero(t, store.count(), "both objects removed after record failure")
}

func TestSetPrimary(t *testing.T) {
	images := newFakeImageStore()
	svc := newTestMediaService(images, newFakeDocumentStore(), newFakeBlobStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, images.Create(ctx, models.CattleImage{
			ID:       fmt.Sprintf("img-%d", i),
			CattleID: "cattle-1",
		}))
	}

	require.NoError(t, svc.SetPrimary(ctx, "cattle-1", "img-1"))

	img, err := images.GetByID(ctx, "cattle-1", "img-1")
	require.NoError(t, err)
	assert.True(t, img.IsPrimary)

	// Idempotent: promoting the current primary changes nothing.
	require.NoError(t, svc.SetPrimary(ctx, "cattle-1", "img-1"))

	count, err := images.CountPrimary(ctx, "cattle-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetPrimaryUnknownImage(t *testing.T) {
	svc := newTestMediaService(newFakeImageStore(), newFakeDocumentStore(), newFakeBlobStore())

	err := svc.SetPrimary(context.Background(), "cattle-1", "missing")
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}

func TestSetPrimaryConcurrent(t *testing.T) {
	images := newFakeImageStore()
	svc := newTestMediaService(images, newFakeDocumentStore(), newFakeBlobStore())
	ctx := context.Background()

	const n = 16
	for i := 0; i < n; i++ {
		require.NoError(t, images.Create(ctx, models.CattleImage{
			ID:       fmt.Sprintf("img-%d", i),
			CattleID: "cattle-1",
		}))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, svc.SetPrimary(ctx, "cattle-1", fmt.Sprintf("img-%d", i)))
		}(i)
	}
	wg.Wait()

	count, err := images.CountPrimary(ctx, "cattle-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "exactly one primary after concurrent promotions")
}

func TestUploadDocument(t *testing.T) {
	docs := newFakeDocumentStore()
	store := newFakeBlobStore()
	svc := newTestMediaService(newFakeImageStore(), docs, store)

	data := []byte("%PDF-1.7 fake vaccination card")
	record, err := svc.UploadDocument(context.Background(), DocumentUploadInput{
		CattleID:     "cattle-1",
		Filename:     "vaccination.pdf",
		Size:         int64(len(data)),
		Data:         data,
		DocumentType: models.DocumentVaccinationRecord,
		DocumentName: "Vaccination card",
	})
	require.NoError(t, err)

	assert.Equal(t, models.DocumentVaccinationRecord, record.DocumentType)
	assert.Equal(t, 1, store.count())

	store.mu.Lock()
	stored := store.objects["documents/"+record.ObjectKey]
	store.mu.Unlock()
	assert.Equal(t, "application/pdf", stored.contentType)
	assert.Equal(t, data, stored.data)
}

func TestUploadDocumentRejectsOversized(t *testing.T) {
	store := newFakeBlobStore()
	svc := newTestMediaService(newFakeImageStore(), newFakeDocumentStore(), store)

	_, err := svc.UploadDocument(context.Background(), DocumentUploadInput{
		CattleID: "cattle-1",
		Filename: "huge.pdf",
		Size:     validate.MaxDocumentBytes + 1,
	})
	assert.ErrorIs(t, err, validate.ErrSizeLimitExceeded)
	assert.Zero(t, store.count())
}

func TestDeleteImageRemovesObjects(t *testing.T) {
	images := newFakeImageStore()
	store := newFakeBlobStore()
	svc := newTestMediaService(images, newFakeDocumentStore(), store)
	ctx := context.Background()

	record, err := svc.UploadImage(ctx, pngUpload(t, "cattle-1", "bessie.png", 50, 50))
	require.NoError(t, err)
	require.Equal(t, 2, store.count())

	require.NoError(t, svc.DeleteImage(ctx, "cattle-1", record.ID))
	assert.Zero(t, store.count())

	_, err = images.GetByID(ctx, "cattle-1", record.ID)
	assert.ErrorIs(t, err, repository.ErrImageNotFound)
}
