// Package media talks to the external object store holding order images and
// videos.
package media

import (
	"context"
	"errors"
)

// Upload is one inbound binary attachment.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Store abstracts the object-storage collaborator: upload yields a stable
// URL, delete is addressed by that URL and is best-effort on the caller's side.
type Store interface {
	Upload(ctx context.Context, file Upload, folder string) (string, error)
	Delete(ctx context.Context, url string) error
}

// ErrNotConfigured is returned by Disabled when no store credentials were provided.
var ErrNotConfigured = errors.New("media store not configured")

// Disabled rejects every upload; deployments without CLOUDINARY_URL still
// serve everything except media attachments.
type Disabled struct{}

func (Disabled) Upload(context.Context, Upload, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) Delete(context.Context, string) error { return ErrNotConfigured }
