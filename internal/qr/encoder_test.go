package qr

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		token   string
		want    string
	}{
		{
			name:    "plain base",
			baseURL: "http://localhost:3000",
			token:   "abc-123",
			want:    "http://localhost:3000/ticket/verify/abc-123",
		},
		{
			name:    "trailing slash trimmed",
			baseURL: "https://events.example.edu/",
			token:   "abc-123",
			want:    "https://events.example.edu/ticket/verify/abc-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyURL(tt.baseURL, tt.token))
		})
	}
}

func TestEncodeProducesPNGDataURL(t *testing.T) {
	enc := NewEncoder(0)

	dataURL, err := enc.Encode("http://localhost:3000/ticket/verify/abc-123")
	require.NoError(t, err)

	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(dataURL, prefix))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURL, prefix))
	require.NoError(t, err)

	// PNG magic bytes
	require.GreaterOrEqual(t, len(raw), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, raw[:8])
}

func TestEncodeSamePayloadIsDeterministic(t *testing.T) {
	enc := NewEncoder(128)

	a, err := enc.Encode("payload")
	require.NoError(t, err)
	b, err := enc.Encode("payload")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	enc := NewEncoder(0)

	// QR capacity at medium recovery tops out under 3KB
	_, err := enc.Encode(strings.Repeat("x", 8000))
	assert.Error(t, err)
}
