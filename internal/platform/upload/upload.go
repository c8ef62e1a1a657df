// Package upload reads images from multipart requests and inlines them as
// base64 data URIs, the form in which records embed photos.
package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/platform/apperr"
)

// DefaultMaxBytes is the per-image limit when none is configured (5 MB).
const DefaultMaxBytes = 5 << 20

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
)

// AllowedContentTypes lists the image types accepted for photos.
var AllowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// IsMultipart reports whether the request carries multipart/form-data.
func IsMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// Image reads the file in the named form field and returns it as a data URI.
// ok is false when the field carries no file. maxBytes <= 0 selects
// DefaultMaxBytes.
func Image(c echo.Context, field string, maxBytes int64) (uri string, ok bool, err error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	file, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", false, nil
	} else if err != nil {
		return "", false, apperr.Validation("invalid %s upload", field)
	}
	if file.Size > maxBytes {
		return "", false, apperr.Validation("%s: %s", field, ErrFileTooLarge)
	}

	src, err := file.Open()
	if err != nil {
		return "", false, fmt.Errorf("open %s upload: %w", field, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxBytes+1))
	if err != nil {
		return "", false, fmt.Errorf("read %s upload: %w", field, err)
	}
	if int64(len(data)) > maxBytes {
		return "", false, apperr.Validation("%s: %s", field, ErrFileTooLarge)
	}

	contentType := file.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if !AllowedContentTypes[contentType] {
		return "", false, apperr.Validation("%s: %s: %s", field, ErrInvalidContentType, contentType)
	}
	return DataURI(contentType, data), true, nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
