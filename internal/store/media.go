package store

import (
	"encoding/base64"
	"errors"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidImage is returned for image payloads that are not base64 image data URIs.
var ErrInvalidImage = errors.New("image must be a base64 data URI")

// ParseDataURI decodes "data:image/png;base64,...." into its content type and bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	contentType, ok := strings.CutSuffix(meta, ";base64")
	if !ok || !strings.HasPrefix(contentType, "image/") {
		return "", nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, data, nil
}

// newObjectKey names an uploaded image with a random id and an extension
// derived from its content type.
func newObjectKey(contentType string) string {
	ext := ""
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return uuid.NewString() + ext
}

// KeyFromRef recovers the object key from a stored media reference: the
// last path segment.
func KeyFromRef(ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(ref)
}
