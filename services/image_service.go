package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

// Agents receive every image as a self-describing data URI, regardless of
// whether it arrived as a remote URL or uploaded bytes. Media type is taken
// from the declared content type or the name's extension, defaulting to JPEG.

// EncodeDataURI renders raw image bytes as a data URI.
func EncodeDataURI(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI recovers the media type and the original bytes from a data
// URI produced by EncodeDataURI.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	mediaType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, fmt.Errorf("data URI is not base64-encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("could not decode data URI payload: %w", err)
	}
	return mediaType, data, nil
}

// DetectImageMediaType infers the image media type from a declared content
// type and a file name or URL. Unknown types default to image/jpeg.
func DetectImageMediaType(contentType, name string) string {
	lowerName := strings.ToLower(name)
	switch {
	case strings.Contains(contentType, "jpeg"), strings.Contains(lowerName, ".jpg"), strings.Contains(lowerName, ".jpeg"):
		return "image/jpeg"
	case strings.Contains(contentType, "png"), strings.Contains(lowerName, ".png"):
		return "image/png"
	case strings.Contains(contentType, "webp"), strings.Contains(lowerName, ".webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// FetchImageDataURI downloads a remote image and normalizes it to a data URI.
func FetchImageDataURI(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("could not build request for image %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", url, err)
	}

	mediaType := DetectImageMediaType(resp.Header.Get("Content-Type"), url)
	log.Printf("IMAGES: Downloaded %s (%d bytes, %s)", url, len(data), mediaType)
	return EncodeDataURI(mediaType, data), nil
}
