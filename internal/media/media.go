// Package media converts user photos into self-describing data URL tokens and back.
//
// A token has the form "data:<media type>;base64,<payload>" and is what the analysis
// client embeds in its request.
package media

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/snapmix/internal/shared"
)

// MaxImageBytes caps uploads at the inline-data limit of the vision API.
const MaxImageBytes = 7 * 1024 * 1024

const (
	dataPrefix   = "data:"
	base64Marker = ";base64"
)

// Encode wraps data in a data URL token. An empty mediaType is sniffed from the bytes.
func Encode(data []byte, mediaType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", shared.ErrInvalidInput)
	}
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", shared.ErrInvalidInput, MaxImageBytes)
	}

	mediaType = normalize(mediaType)
	if mediaType == "" {
		mediaType = normalize(http.DetectContentType(data))
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %q is not an image type", shared.ErrInvalidInput, mediaType)
	}

	return dataPrefix + mediaType + base64Marker + "," + base64.StdEncoding.EncodeToString(data), nil
}

// EncodeFile reads the image at path and encodes it. The media type comes from the file
// extension, falling back to content sniffing.
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrReadImage, err)
	}
	return Encode(data, mime.TypeByExtension(strings.ToLower(filepath.Ext(path))))
}

// Decode reverses [Encode], returning the original bytes and media type.
func Decode(token string) ([]byte, string, error) {
	mediaType, payload, err := split(token)
	if err != nil {
		return nil, "", err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return data, mediaType, nil
}

// MediaType reads the media type from the token header without decoding the payload.
func MediaType(token string) (string, error) {
	mediaType, _, err := split(token)
	return mediaType, err
}

// split separates a token into its media type and base64 payload.
func split(token string) (string, string, error) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, dataPrefix) {
		return "", "", fmt.Errorf("%w: not a data URL", shared.ErrInvalidInput)
	}

	meta, payload, ok := strings.Cut(token[len(dataPrefix):], ",")
	if !ok {
		return "", "", fmt.Errorf("%w: data URL has no payload", shared.ErrInvalidInput)
	}
	if !strings.HasSuffix(meta, base64Marker) {
		return "", "", fmt.Errorf("%w: data URL is not base64 encoded", shared.ErrInvalidInput)
	}
	return strings.TrimSuffix(meta, base64Marker), payload, nil
}

// Digest returns the hex sha256 of token, used to key caches and history rows.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// normalize strips parameters such as "; charset=binary" and lowercases the type.
func normalize(mediaType string) string {
	if mediaType == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		return mt
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
