package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "brokerage/pkg/errors"
)

func TestWriteError_UsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("extend: %w", apperrors.New("EXTEND_NOT_ALLOWED", "hold cannot be extended yet", http.StatusConflict))

	if writeErr := WriteError(rec, err); writeErr != nil {
		t.Fatalf("WriteError returned %v", writeErr)
	}

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "EXTEND_NOT_ALLOWED" {
		t.Errorf("code = %q, want EXTEND_NOT_ALLOWED", body.Code)
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()

	_ = WriteError(rec, errors.New("mongo: connection pool exhausted"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "mongo") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestExtractCaller(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		role    string
		wantErr bool
		admin   bool
	}{
		{name: "ctv", userID: "ctv-1", role: "CTV"},
		{name: "admin lower case", userID: "admin-1", role: "admin", admin: true},
		{name: "missing user", role: "CTV", wantErr: true},
		{name: "unknown role", userID: "u-1", role: "GUEST", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}

			caller, err := ExtractCaller(req)
			if tt.wantErr {
				appErr := apperrors.AsAppError(err)
				if err == nil || appErr.Code != apperrors.CodeUnauthorized {
					t.Fatalf("expected unauthorized error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if caller.UserID != tt.userID || caller.IsAdmin() != tt.admin {
				t.Errorf("caller = %+v", caller)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Reason string `json:"reason"`
	}

	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(empty, &dst); err != nil {
		t.Errorf("empty body should be accepted, got %v", err)
	}

	unknown := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"foo":1}`))
	if err := DecodeJSON(unknown, &dst); err == nil {
		t.Error("unknown fields should be rejected")
	}

	ok := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"client visit"}`))
	if err := DecodeJSON(ok, &dst); err != nil || dst.Reason != "client visit" {
		t.Errorf("decode = %q, %v", dst.Reason, err)
	}
}

func TestExtractLimitOffset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=-3", nil)
	limit, offset, err := ExtractLimitOffset(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 100 || offset != 0 {
		t.Errorf("limit=%d offset=%d, want 100 and 0", limit, offset)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	if _, _, err := ExtractLimitOffset(bad); err == nil {
		t.Error("expected error for non-numeric limit")
	}
}
