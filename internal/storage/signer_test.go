package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestSigner(t *testing.T) *AvatarSigner {
	t.Helper()
	signer, err := NewAvatarSigner(SignerConfig{
		BucketName:      "avatars",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		Endpoint:        "https://test.r2.cloudflarestorage.com",
	})
	if err != nil {
		t.Fatalf("failed to create signer: %v", err)
	}
	return signer
}

func TestNewAvatarSigner_Validation(t *testing.T) {
	valid := SignerConfig{
		BucketName:      "avatars",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Endpoint:        "https://example.com",
	}

	tests := []struct {
		name   string
		mutate func(*SignerConfig)
	}{
		{"missing bucket", func(c *SignerConfig) { c.BucketName = "" }},
		{"missing access key", func(c *SignerConfig) { c.AccessKeyID = "" }},
		{"missing secret", func(c *SignerConfig) { c.SecretAccessKey = "" }},
		{"missing endpoint", func(c *SignerConfig) { c.Endpoint = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			if _, err := NewAvatarSigner(cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := NewAvatarSigner(valid); err != nil {
		t.Errorf("valid config returned error: %v", err)
	}
}

func TestSignAvatar_ProducesPresignedGetURL(t *testing.T) {
	signer := newTestSigner(t)

	raw, err := signer.SignAvatar(context.Background(), "/avatars/user-1.jpg", time.Hour)
	if err != nil {
		t.Fatalf("SignAvatar() error = %v", err)
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("signed URL does not parse: %v", err)
	}
	if u.Host != "test.r2.cloudflarestorage.com" {
		t.Errorf("host = %q, want test.r2.cloudflarestorage.com", u.Host)
	}
	if !strings.HasPrefix(u.Path, "/avatars/avatars/user-1.jpg") {
		t.Errorf("path = %q, want bucket/key path", u.Path)
	}
	q := u.Query()
	if q.Get("X-Amz-Expires") != "3600" {
		t.Errorf("X-Amz-Expires = %q, want 3600", q.Get("X-Amz-Expires"))
	}
	if q.Get("X-Amz-Signature") == "" {
		t.Error("expected X-Amz-Signature in signed URL")
	}
}

func TestSignAvatar_Errors(t *testing.T) {
	signer := newTestSigner(t)

	if _, err := signer.SignAvatar(context.Background(), "  ", time.Hour); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("empty key: got %v, want ErrEmptyKey", err)
	}
	if _, err := signer.SignAvatar(context.Background(), "a.jpg", 0); !errors.Is(err, ErrInvalidExpiry) {
		t.Errorf("zero expiry: got %v, want ErrInvalidExpiry", err)
	}
}
