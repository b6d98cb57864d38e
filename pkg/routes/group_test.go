package routes_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/document-manager/pkg/routes"
)

func respond(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body + ":" + r.PathValue("id")))
	}
}

func documentGroup() routes.Group {
	return routes.Group{
		Prefix: "/documents",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: respond("list")},
			{Method: "GET", Pattern: "/{id}", Handler: respond("get")},
		},
		Children: []routes.Group{
			{
				Prefix: "/{id}/notes",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "", Handler: respond("notes")},
				},
			},
		},
	}
}

func TestGroup_Patterns(t *testing.T) {
	got := documentGroup().Patterns()
	want := []string{
		"GET /documents",
		"GET /documents/{id}",
		"GET /documents/{id}/notes",
	}

	if !slices.Equal(got, want) {
		t.Errorf("Patterns() = %v, want %v", got, want)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, documentGroup())

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"list", http.MethodGet, "/documents", http.StatusOK, "list:"},
		{"get", http.MethodGet, "/documents/abc", http.StatusOK, "get:abc"},
		{"child", http.MethodGet, "/documents/abc/notes", http.StatusOK, "notes:abc"},
		{"wrong method", http.MethodPost, "/documents", http.StatusMethodNotAllowed, ""},
		{"unknown", http.MethodGet, "/tags", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			if tt.wantBody != "" {
				body, _ := io.ReadAll(w.Result().Body)
				if string(body) != tt.wantBody {
					t.Errorf("body = %q, want %q", body, tt.wantBody)
				}
			}
		})
	}
}
