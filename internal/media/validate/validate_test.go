package validate

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestImage(t *testing.T) {
	validPNG := encodePNG(t, 4, 4)
	validJPEG := encodeJPEG(t, 8, 6)

	tests := []struct {
		name      string
		candidate Candidate
		wantErr   error
	}{
		{
			name:      "png accepted",
			candidate: Candidate{Filename: "cow.png", DeclaredSize: int64(len(validPNG)), Data: validPNG},
		},
		{
			name:      "jpeg accepted",
			candidate: Candidate{Filename: "cow.jpeg", DeclaredSize: int64(len(validJPEG)), Data: validJPEG},
		},
		{
			name:      "jpg extension accepted",
			candidate: Candidate{Filename: "COW.JPG", DeclaredSize: int64(len(validJPEG)), Data: validJPEG},
		},
		{
			name:      "one byte over the cap",
			candidate: Candidate{Filename: "big.jpg", DeclaredSize: MaxImageBytes + 1, Data: validJPEG},
			wantErr:   ErrSizeLimitExceeded,
		},
		{
			name:      "gif extension rejected",
			candidate: Candidate{Filename: "cow.gif", DeclaredSize: 100, Data: validPNG},
			wantErr:   ErrUnsupportedFormat,
		},
		{
			name:      "valid content behind wrong extension",
			candidate: Candidate{Filename: "cow.bmp", DeclaredSize: int64(len(validPNG)), Data: validPNG},
			wantErr:   ErrUnsupportedFormat,
		},
		{
			name:      "no extension",
			candidate: Candidate{Filename: "cow", DeclaredSize: 100, Data: validPNG},
			wantErr:   ErrUnsupportedFormat,
		},
		{
			name:      "garbage bytes",
			candidate: Candidate{Filename: "cow.jpg", DeclaredSize: 12, Data: []byte("not an image")},
			wantErr:   ErrCorruptImage,
		},
		{
			name:      "truncated png",
			candidate: Candidate{Filename: "cow.png", DeclaredSize: 4, Data: validPNG[:4]},
			wantErr:   ErrCorruptImage,
		},
		{
			name:      "empty payload",
			candidate: Candidate{Filename: "cow.png", DeclaredSize: 0, Data: nil},
			wantErr:   ErrCorruptImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := Image(tt.candidate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, decoded)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, decoded)
		})
	}
}

func TestImagePixelLimit(t *testing.T) {
	// A PNG header can declare huge dimensions in a few hundred bytes;
	// the area guard has to reject it before the full decode.
	data := encodePNG(t, 2, 2)
	// Patch the IHDR width and height fields (offsets 16 and 20) to
	// claim a 100000x100000 canvas, then re-seal the chunk CRC so the
	// decoder gets as far as the dimensions.
	for i, b := range []byte{0x00, 0x01, 0x86, 0xa0} {
		data[16+i] = b
		data[20+i] = b
	}
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, err := Image(Candidate{Filename: "bomb.png", DeclaredSize: int64(len(data)), Data: data})
	assert.ErrorIs(t, err, ErrCorruptImage)
}

func TestDocument(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		wantErr   error
	}{
		{
			name:      "pdf accepted",
			candidate: Candidate{Filename: "vaccination.pdf", DeclaredSize: 9 * 1024 * 1024, Data: []byte("%PDF-1.7")},
		},
		{
			name:      "jpeg scan accepted",
			candidate: Candidate{Filename: "certificate.jpg", DeclaredSize: 2048},
		},
		{
			name:      "png scan accepted",
			candidate: Candidate{Filename: "certificate.png", DeclaredSize: 2048},
		},
		{
			name:      "exactly at the cap",
			candidate: Candidate{Filename: "vaccination.pdf", DeclaredSize: MaxDocumentBytes},
		},
		{
			name:      "one byte over the cap",
			candidate: Candidate{Filename: "vaccination.pdf", DeclaredSize: MaxDocumentBytes + 1},
			wantErr:   ErrSizeLimitExceeded,
		},
		{
			name:      "docx rejected",
			candidate: Candidate{Filename: "report.docx", DeclaredSize: 1024},
			wantErr:   ErrUnsupportedFormat,
		},
		{
			name:      "webp not a document format",
			candidate: Candidate{Filename: "scan.webp", DeclaredSize: 1024},
			wantErr:   ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Document(tt.candidate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
