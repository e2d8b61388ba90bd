package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	DisplayBound     = 1200
	ThumbnailBound   = 300
	DisplayQuality   = 85
	ThumbnailQuality = 80

	ContentType = "image/jpeg"
)

// ErrTranscodeFailure marks processing errors on input that already
// passed validation. Callers should treat it as an internal fault, not
// a user-input error.
var ErrTranscodeFailure = errors.New("transcode failure")

// Artifact is one encoded output: the bytes, the derived filename and
// the fixed content type. Immutable once produced.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (a Artifact) Size() int64 {
	return int64(len(a.Data))
}

// Result carries the display variant and its thumbnail. Produce returns
// either a complete Result or an error, never a partial pair.
type Result struct {
	Display   Artifact
	Thumbnail Artifact
}

// Produce re-encodes a decoded upload into the display and thumbnail
// artifacts. The context deadline is checked between the resize and
// encode steps so one oversized image cannot hold a worker past the
// caller's budget.
func Produce(ctx context.Context, src image.Image, originalFilename string) (Result, error) {
	normalized := normalize(src)

	display, err := produce(ctx, normalized, stem(originalFilename)+".jpg", DisplayBound, DisplayQuality)
	if err != nil {
		return Result{}, err
	}

	thumbnail, err := produce(ctx, normalized, stem(originalFilename)+"_thumb.jpg", ThumbnailBound, ThumbnailQuality)
	if err != nil {
		return Result{}, err
	}

	return Result{Display: display, Thumbnail: thumbnail}, nil
}

func produce(ctx context.Context, src image.Image, filename string, bound, quality int) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrTranscodeFailure, err)
	}

	resized := fit(src, bound)

	if err := ctx.Err(); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrTranscodeFailure, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return Artifact{}, fmt.Errorf("%w: encode %s: %v", ErrTranscodeFailure, filename, err)
	}

	return Artifact{
		Filename:    filename,
		ContentType: ContentType,
		Data:        buf.Bytes(),
	}, nil
}

// normalize flattens palette and alpha sources to a plain three-channel
// representation. Alpha is discarded rather than composited onto a
// background, matching the stored output of earlier releases.
func normalize(src image.Image) image.Image {
	switch src.(type) {
	case *image.NRGBA, *image.RGBA, *image.NRGBA64, *image.RGBA64, *image.Paletted:
		out := imaging.Clone(src)
		stripAlpha(out)
		return out
	}
	return src
}

func stripAlpha(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}

// fit scales the image to fit within bound x bound, preserving aspect
// ratio and never upscaling past the source dimensions.
func fit(src image.Image, bound int) image.Image {
	b := src.Bounds()
	if b.Dx() <= bound && b.Dy() <= bound {
		return src
	}
	return imaging.Fit(src, bound, bound, imaging.Lanczos)
}

func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
