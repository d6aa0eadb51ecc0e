package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/assets", "/api/assets"},
		{"/api/assets/stats", "/api/assets/stats"},
		{"/api/assets/0b6c1f7e-3d7a-4f43-9a4a-1b2c3d4e5f60", "/api/assets/{id}"},
		{"/api/assets/abc/history", "/api/assets/{id}/history"},
		{"/api/assets/serial/S-001", "/api/assets/serial/{serial}"},
		{"/api/clients/c1/assets", "/api/clients/{id}/assets"},
		{"/api/users/7/password", "/api/users/{id}/password"},
		{"/api/transfers", "/api/transfers"},
		{"/metrics", "/metrics"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.path); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
