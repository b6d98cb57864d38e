package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/document-manager/pkg/handlers"
)

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		data     any
		wantBody string
	}{
		{"ok with map", http.StatusOK, map[string]string{"message": "hello"}, `{"message":"hello"}`},
		{
			"created with struct",
			http.StatusCreated,
			struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			}{"d1", "invoice"},
			`{"id":"d1","title":"invoice"}`,
		},
		{"ok with slice", http.StatusOK, []int{1, 2, 3}, `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			handlers.RespondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if got := strings.TrimSpace(w.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
		})
	}
}

func TestRespondNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.RespondNoContent(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", w.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		err       error
		wantError string
		wantLevel string
	}{
		{"bad request", http.StatusBadRequest, errors.New("invalid input"), "invalid input", "WARN"},
		{"not found", http.StatusNotFound, errors.New("document not found"), "document not found", "WARN"},
		{"internal error hides detail", http.StatusInternalServerError, errors.New("pq: connection reset"), "Internal Server Error", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, nil))
			w := httptest.NewRecorder()

			handlers.RespondError(w, logger, tt.status, tt.err)

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}

			var result map[string]string
			json.Unmarshal(w.Body.Bytes(), &result)
			if result["error"] != tt.wantError {
				t.Errorf("error = %q, want %q", result["error"], tt.wantError)
			}
			if !strings.Contains(logs.String(), "level="+tt.wantLevel) {
				t.Errorf("log level not %s: %s", tt.wantLevel, logs.String())
			}
			if !strings.Contains(logs.String(), tt.err.Error()) {
				t.Errorf("log should carry original error: %s", logs.String())
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		limit   int64
		want    string
		wantErr bool
	}{
		{"valid", `{"title":"report"}`, 1024, "report", false},
		{"empty", ``, 1024, "", true},
		{"unknown field", `{"title":"x","file":"y"}`, 1024, "", true},
		{"malformed", `{"title":`, 1024, "", true},
		{"over limit", `{"title":"a long title"}`, 8, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader(tt.body)))

			var got payload
			err := handlers.DecodeJSON(req, tt.limit, &got)

			if tt.wantErr {
				if !errors.Is(err, handlers.ErrBadPayload) {
					t.Fatalf("err = %v, want ErrBadPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}
			if got.Title != tt.want {
				t.Errorf("Title = %q, want %q", got.Title, tt.want)
			}
		})
	}
}
