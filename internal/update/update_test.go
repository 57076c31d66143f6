package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withServer(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/"+repo+"/releases/latest" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	orig := BaseURL
	BaseURL = srv.URL
	t.Cleanup(func() { BaseURL = orig })
}

func TestCheckNewer(t *testing.T) {
	withServer(t, http.StatusOK, `{"tag_name":"v1.2.0","html_url":"https://github.com/x/y/releases/v1.2.0"}`)
	res := Check(context.Background(), "v1.1.0")
	if res == nil {
		t.Fatal("expected a result")
	}
	if res.LatestVersion != "1.2.0" {
		t.Errorf("latest = %q", res.LatestVersion)
	}
}

func TestCheckNilCases(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		current string
	}{
		{"same version", http.StatusOK, `{"tag_name":"v1.1.0"}`, "1.1.0"},
		{"empty tag", http.StatusOK, `{"tag_name":""}`, "1.1.0"},
		{"server error", http.StatusInternalServerError, `{}`, "1.1.0"},
		{"bad json", http.StatusOK, `{not json`, "1.1.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withServer(t, tt.status, tt.body)
			if res := Check(context.Background(), tt.current); res != nil {
				t.Errorf("expected nil, got %+v", res)
			}
		})
	}
}
