package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/medlab/medlab/internal/platform/apperr"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func multipartContext(t *testing.T, field, filename, contentType string, content []byte) echo.Context {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("name", "Jane Doe")
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/patients", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestImage(t *testing.T) {
	c := multipartContext(t, "photo", "face.png", "image/png", pngHeader)
	if !IsMultipart(c) {
		t.Fatal("expected multipart request")
	}

	uri, ok, err := Image(c, "photo", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a file")
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected data uri %q", uri)
	}
}

func TestImage_DetectsContentType(t *testing.T) {
	c := multipartContext(t, "photo", "face", "application/octet-stream", pngHeader)
	uri, _, err := Image(c, "photo", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("expected sniffed png, got %q", uri)
	}
}

func TestImage_Missing(t *testing.T) {
	c := multipartContext(t, "", "", "", nil)
	_, ok, err := Image(c, "photo", 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("did not expect a file")
	}
}

func TestImage_TooLarge(t *testing.T) {
	c := multipartContext(t, "photo", "face.png", "image/png", bytes.Repeat([]byte("x"), 64))
	_, _, err := Image(c, "photo", 16)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), ErrFileTooLarge.Error()) {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestImage_RejectsContentType(t *testing.T) {
	c := multipartContext(t, "photo", "notes.txt", "text/plain", []byte("hello"))
	_, _, err := Image(c, "photo", 1024)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDataURI(t *testing.T) {
	if got := DataURI("image/gif", []byte("GIF")); got != "data:image/gif;base64,R0lG" {
		t.Errorf("unexpected data uri %q", got)
	}
}
