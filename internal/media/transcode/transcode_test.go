package transcode

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestProduceBounds(t *testing.T) {
	tests := []struct {
		name            string
		srcW, srcH      int
		wantDisplayW    int
		wantDisplayH    int
		wantThumbnailW  int
		wantThumbnailH  int
	}{
		{
			name: "square oversized",
			srcW: 2000, srcH: 2000,
			wantDisplayW: 1200, wantDisplayH: 1200,
			wantThumbnailW: 300, wantThumbnailH: 300,
		},
		{
			name: "landscape keeps aspect ratio",
			srcW: 2400, srcH: 1200,
			wantDisplayW: 1200, wantDisplayH: 600,
			wantThumbnailW: 300, wantThumbnailH: 150,
		},
		{
			name: "portrait keeps aspect ratio",
			srcW: 600, srcH: 2400,
			wantDisplayW: 300, wantDisplayH: 1200,
			wantThumbnailW: 75, wantThumbnailH: 300,
		},
		{
			name: "small source is never upscaled",
			srcW: 100, srcH: 50,
			wantDisplayW: 100, wantDisplayH: 50,
			wantThumbnailW: 100, wantThumbnailH: 50,
		},
		{
			name: "exactly at the display bound",
			srcW: 1200, srcH: 1200,
			wantDisplayW: 1200, wantDisplayH: 1200,
			wantThumbnailW: 300, wantThumbnailH: 300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solid(tt.srcW, tt.srcH, color.NRGBA{R: 120, G: 80, B: 40, A: 255})

			result, err := Produce(context.Background(), src, "cow.png")
			require.NoError(t, err)

			display := decodeJPEG(t, result.Display.Data)
			assert.Equal(t, tt.wantDisplayW, display.Bounds().Dx())
			assert.Equal(t, tt.wantDisplayH, display.Bounds().Dy())

			thumb := decodeJPEG(t, result.Thumbnail.Data)
			assert.Equal(t, tt.wantThumbnailW, thumb.Bounds().Dx())
			assert.Equal(t, tt.wantThumbnailH, thumb.Bounds().Dy())

			assert.Positive(t, result.Display.Size())
			assert.Positive(t, result.Thumbnail.Size())
		})
	}
}

func TestProduceFilenames(t *testing.T) {
	tests := []struct {
		name          string
		original      string
		wantDisplay   string
		wantThumbnail string
	}{
		{"png source", "cow.png", "cow.jpg", "cow_thumb.jpg"},
		{"already jpeg", "herd.jpeg", "herd.jpg", "herd_thumb.jpg"},
		{"dotted stem", "my.best.cow.webp", "my.best.cow.jpg", "my.best.cow_thumb.jpg"},
		{"path stripped", "uploads/2024/cow.jpg", "cow.jpg", "cow_thumb.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := solid(10, 10, color.NRGBA{A: 255})

			result, err := Produce(context.Background(), src, tt.original)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDisplay, result.Display.Filename)
			assert.Equal(t, tt.wantThumbnail, result.Thumbnail.Filename)
			assert.Equal(t, ContentType, result.Display.ContentType)
			assert.Equal(t, ContentType, result.Thumbnail.ContentType)
		})
	}
}

func TestProduceDropsAlpha(t *testing.T) {
	// A fully transparent red source must come out red, not black: the
	// alpha channel is discarded, never composited.
	src := solid(10, 10, color.NRGBA{R: 200, A: 0})

	result, err := Produce(context.Background(), src, "ghost.png")
	require.NoError(t, err)

	out := decodeJPEG(t, result.Display.Data)
	r, _, b, _ := out.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(150), "red channel survived")
	assert.Less(t, b>>8, uint32(60), "no background composited in")
}

func TestProducePaletted(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 1500, 900), color.Palette{
		color.NRGBA{R: 10, G: 200, B: 10, A: 255},
	})

	result, err := Produce(context.Background(), src, "chart.png")
	require.NoError(t, err)

	out := decodeJPEG(t, result.Display.Data)
	assert.Equal(t, 1200, out.Bounds().Dx())
	assert.Equal(t, 720, out.Bounds().Dy())
}

func TestProduceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Produce(ctx, solid(10, 10, color.NRGBA{A: 255}), "cow.jpg")
	assert.ErrorIs(t, err, ErrTranscodeFailure)
}
