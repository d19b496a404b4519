package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURIRoundTrip(t *testing.T) {
	original := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

	uri := EncodeDataURI("image/jpeg", original)
	assert.True(t, len(uri) > 0)

	mediaType, decoded, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mediaType)
	assert.Equal(t, original, decoded, "decoding must recover the original bytes exactly")
}

func TestDecodeDataURIRejectsMalformedInput(t *testing.T) {
	cases := []string{
		"https://example.com/image.jpg",
		"data:image/jpeg,not-base64-marked",
		"data:image/jpeg;base64,!!!not base64!!!",
	}
	for _, uri := range cases {
		_, _, err := DecodeDataURI(uri)
		assert.Error(t, err, "uri %q should not decode", uri)
	}
}

func TestDetectImageMediaType(t *testing.T) {
	tests := []struct {
		contentType string
		name        string
		want        string
	}{
		{"image/jpeg", "design.bin", "image/jpeg"},
		{"image/png", "design.bin", "image/png"},
		{"image/webp", "design.bin", "image/webp"},
		{"", "shirt.PNG", "image/png"},
		{"", "shirt.jpg", "image/jpeg"},
		{"", "https://cdn.example.com/design.webp?v=2", "image/webp"},
		{"application/octet-stream", "design.bin", "image/jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectImageMediaType(tt.contentType, tt.name))
	}
}

func TestFetchImageDataURI(t *testing.T) {
	payload := []byte("fake image bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	}))
	defer server.Close()

	uri, err := FetchImageDataURI(context.Background(), server.Client(), server.URL)
	require.NoError(t, err)

	mediaType, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.Equal(t, payload, data)
}

func TestFetchImageDataURIFailsOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := FetchImageDataURI(context.Background(), server.Client(), server.URL)
	assert.Error(t, err)
}
