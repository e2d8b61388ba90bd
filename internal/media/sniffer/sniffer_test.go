package sniffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectHead(t *testing.T) {
	tests := []struct {
		name     string
		head     []byte
		wantType MediaType
		wantMIME string
		wantErr  bool
	}{
		{
			name:     "jpeg",
			head:     []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10},
			wantType: TypeJPEG,
			wantMIME: "image/jpeg",
		},
		{
			name:     "png",
			head:     []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0},
			wantType: TypePNG,
			wantMIME: "image/png",
		},
		{
			name:     "webp",
			head:     []byte("RIFF\x24\x00\x00\x00WEBPVP8 "),
			wantType: TypeWEBP,
			wantMIME: "image/webp",
		},
		{
			name:     "pdf",
			head:     []byte("%PDF-1.4\n%"),
			wantType: TypePDF,
			wantMIME: "application/pdf",
		},
		{
			name:    "riff but not webp",
			head:    []byte("RIFF\x24\x00\x00\x00WAVEfmt "),
			wantErr: true,
		},
		{
			name:    "truncated jpeg magic",
			head:    []byte{0xff, 0xd8},
			wantErr: true,
		},
		{
			name:    "empty",
			head:    nil,
			wantErr: true,
		},
		{
			name:    "plain text",
			head:    []byte("hello world"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DetectHead(tt.head)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, result.Type)
			assert.Equal(t, tt.wantMIME, result.MIME)
		})
	}
}
