package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDenyPreflight(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name       string
		method     string
		headers    map[string]string
		wantStatus int
	}{
		{
			name:   "preflight is denied",
			method: http.MethodOptions,
			headers: map[string]string{
				"Origin":                         "https://evil.example",
				"Access-Control-Request-Method":  "POST",
				"Access-Control-Request-Headers": "content-type",
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "plain options passes",
			method:     http.MethodOptions,
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "post passes",
			method:     http.MethodPost,
			headers:    map[string]string{"Origin": "https://evil.example"},
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/graphql", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			DenyPreflight(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if rec.Code == http.StatusNoContent && rec.Header().Get("Access-Control-Allow-Origin") != "" {
				t.Error("denied preflight must not grant an origin")
			}
		})
	}
}
