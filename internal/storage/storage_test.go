package storage

import (
	"testing"

	"github.com/andresuchdata/autopo-py/restockd/internal/config"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"localhost:9000", false, "localhost:9000", false},
		{"//bucket.host", true, "bucket.host", true},
	}
	for _, tt := range tests {
		host, secure := splitEndpoint(tt.in, tt.useSSL)
		if host != tt.wantHost || secure != tt.wantSecure {
			t.Errorf("splitEndpoint(%q) = %q %v, want %q %v", tt.in, host, secure, tt.wantHost, tt.wantSecure)
		}
	}
}

func TestNewMinioClient_RequiresSettings(t *testing.T) {
	base := config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "artifacts"}

	for name, mutate := range map[string]func(*config.StorageConfig){
		"endpoint":    func(c *config.StorageConfig) { c.Endpoint = "" },
		"credentials": func(c *config.StorageConfig) { c.SecretKey = "" },
		"bucket":      func(c *config.StorageConfig) { c.Bucket = "" },
	} {
		cfg := base
		mutate(&cfg)
		if _, err := NewMinioClient(cfg); err == nil {
			t.Errorf("missing %s: expected error", name)
		}
	}

	if _, err := NewMinioClient(base); err != nil {
		t.Errorf("valid config: %v", err)
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("restock/scaler_X.JSON"); got != "application/json" {
		t.Errorf("contentType = %q", got)
	}
	if got := contentType("model.bin"); got != "application/octet-stream" {
		t.Errorf("contentType = %q", got)
	}
}
