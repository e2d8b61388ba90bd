package validate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// MaxImageBytes caps image uploads at 5 MiB.
	MaxImageBytes = 5 * 1024 * 1024
	// MaxDocumentBytes caps document uploads at 10 MiB.
	MaxDocumentBytes = 10 * 1024 * 1024

	// MaxPixels bounds the decoded area so an under-the-byte-limit
	// decompression bomb cannot monopolize a transcode worker.
	MaxPixels = 40_000_000
)

var (
	ErrSizeLimitExceeded = errors.New("size limit exceeded")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrCorruptImage      = errors.New("corrupt or undecodable image")
)

var (
	imageExtensions    = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}}
	documentExtensions = map[string]struct{}{".pdf": {}, ".jpg": {}, ".jpeg": {}, ".png": {}}
)

// Candidate is one unvalidated upload: raw bytes plus what the caller
// declared about them. It lives only for the duration of a single
// validate-then-process call.
type Candidate struct {
	Filename     string
	DeclaredSize int64
	Data         []byte
}

// Image validates an image candidate and returns the decoded pixels on
// success. The size check runs first so oversized payloads are rejected
// before any decode work. The decoded image is handed straight to the
// transcoder; no re-validation happens there.
func Image(candidate Candidate) (image.Image, error) {
	if candidate.DeclaredSize > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrSizeLimitExceeded, MaxImageBytes)
	}

	ext := strings.ToLower(filepath.Ext(candidate.Filename))
	if _, ok := imageExtensions[ext]; !ok {
		return nil, fmt.Errorf("%w: extension %q not allowed for images", ErrUnsupportedFormat, ext)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(candidate.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", ErrCorruptImage, cfg.Width, cfg.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(candidate.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	return decoded, nil
}

// Document validates a document candidate. PDF bytes are opaque to this
// layer, so no decode verification happens here.
func Document(candidate Candidate) error {
	if candidate.DeclaredSize > MaxDocumentBytes {
		return fmt.Errorf("%w: document exceeds %d bytes", ErrSizeLimitExceeded, MaxDocumentBytes)
	}

	ext := strings.ToLower(filepath.Ext(candidate.Filename))
	if _, ok := documentExtensions[ext]; !ok {
		return fmt.Errorf("%w: extension %q not allowed for documents", ErrUnsupportedFormat, ext)
	}

	return nil
}
