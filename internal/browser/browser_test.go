package browser

import (
	"testing"
)

func TestOpenRejectsNonHTTP(t *testing.T) {
	var launched []string
	orig := start
	start = func(name string, args ...string) error {
		launched = append(launched, args[len(args)-1])
		return nil
	}
	t.Cleanup(func() { start = orig })

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com/story", false},
		{"http://example.com", false},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"ftp://example.com", true},
		{"https://", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Open(tt.url)
		if tt.wantErr && err == nil {
			t.Errorf("Open(%q): expected error, got nil", tt.url)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Open(%q): unexpected error %v", tt.url, err)
		}
	}
	if len(launched) != 2 {
		t.Errorf("expected 2 launches, got %v", launched)
	}
}

func TestCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
		{"windows", "rundll32"},
	}
	for _, tt := range tests {
		name, args := command(tt.goos, "https://example.com")
		if name != tt.want {
			t.Errorf("command(%s) = %q, want %q", tt.goos, name, tt.want)
		}
		if args[len(args)-1] != "https://example.com" {
			t.Errorf("command(%s) args = %v", tt.goos, args)
		}
	}
}
