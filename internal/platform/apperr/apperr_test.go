package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"validation", Validation("%s is required", "name"), http.StatusBadRequest, "validation", "name is required"},
		{"not found", NotFound("patient"), http.StatusNotFound, "not_found", "patient not found"},
		{"conflict", Conflict("passport number already exists", errors.New("23505")), http.StatusBadRequest, "conflict", "passport number already exists"},
		{"unauthorized", Unauthorized("invalid credentials"), http.StatusUnauthorized, "unauthorized", "invalid credentials"},
		{"wrapped", fmt.Errorf("create lab: %w", NotFound("lab report")), http.StatusNotFound, "not_found", "lab report not found"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "internal", "internal server error"},
		{"echo 404", echo.ErrNotFound, http.StatusNotFound, "not_found", "Not Found"},
		{"echo 413", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large"), http.StatusRequestEntityTooLarge, "request_entity_too_large", "request body too large"},
		{"echo 500 hides message", echo.NewHTTPError(http.StatusInternalServerError, "pq: boom"), http.StatusInternalServerError, "internal", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := Classify(tt.err)
			if status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, status)
			}
			if body.Code != tt.code {
				t.Errorf("expected code %q, got %q", tt.code, body.Code)
			}
			if body.Message != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, body.Message)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	cause := errors.New("duplicate key")
	err := fmt.Errorf("insert: %w", Conflict("lab number already exists", cause))
	if !IsConflict(err) {
		t.Error("expected conflict")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
	if IsNotFound(err) {
		t.Error("conflict must not read as not found")
	}
	if !IsNotFound(NotFound("user")) {
		t.Error("expected not found")
	}
}

func TestHTTPErrorHandler_WritesJSON(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/patients", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(zerolog.Nop())(Conflict("passport number already exists", nil), c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "conflict" || body.Message != "passport number already exists" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodHead, "/patients/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	HTTPErrorHandler(zerolog.Nop())(NotFound("patient"), c)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("expected empty body, got %q", rec.Body.String())
	}
}
