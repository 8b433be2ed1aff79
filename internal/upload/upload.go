// Package upload persists rasterized pages and returns a public URL for them.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-review/internal/rasterize"
	"resume-review/internal/shared/storage/object"
	"resume-review/internal/shared/util"
)

// KeyPrefix namespaces every uploaded page image.
const KeyPrefix = "resume-images"

// DefaultMaxBytes caps a single uploaded image.
const DefaultMaxBytes = 8 << 20

// DefaultSignedURLTTL is how long a presigned image URL stays valid.
const DefaultSignedURLTTL = time.Hour

// Asset is an uploaded image reachable by URL.
type Asset struct {
	URL       string
	Key       string
	SizeBytes int64
}

// Sink accepts an image and returns where it can be fetched from.
type Sink interface {
	Upload(ctx context.Context, img rasterize.Image) (Asset, error)
}

// Error is an upload failure. Reason is safe to show to callers.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload failed: %s: %v", e.Reason, e.Err)
	}
	return "upload failed: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is or wraps an upload *Error.
func IsError(err error) bool {
	var ue *Error
	return errors.As(err, &ue)
}

type ownerKey struct{}

// WithOwner records the user an upload belongs to.
func WithOwner(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, userID)
}

// OwnerFromContext returns the owner set by WithOwner.
func OwnerFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}

// StoreSink writes images to an object store. URLs are built from BaseURL, or
// presigned by the store when BaseURL is empty and the store supports it.
type StoreSink struct {
	Store        object.ObjectStore
	BaseURL      string
	MaxBytes     int64
	SignedURLTTL time.Duration

	newID func() string
}

// NewStoreSink returns a sink over store; maxBytes <= 0 means DefaultMaxBytes.
func NewStoreSink(store object.ObjectStore, baseURL string, maxBytes int64) *StoreSink {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &StoreSink{
		Store:    store,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		MaxBytes: maxBytes,
		newID:    uuid.NewString,
	}
}

// Upload makes a single attempt to store img.
func (s *StoreSink) Upload(ctx context.Context, img rasterize.Image) (Asset, error) {
	if s.Store == nil {
		return Asset{}, &Error{Reason: "no object store configured"}
	}
	if len(img.Data) == 0 {
		return Asset{}, &Error{Reason: "image is empty"}
	}
	limit := s.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if int64(len(img.Data)) > limit {
		return Asset{}, &Error{Reason: fmt.Sprintf("image is %s, limit is %s", util.FormatSize(int64(len(img.Data))), util.FormatSize(limit))}
	}

	newID := s.newID
	if newID == nil {
		newID = uuid.NewString
	}
	key := ImageKey(OwnerFromContext(ctx), newID(), img.MimeType)

	contentType := img.MimeType
	if contentType == "" {
		contentType = "image/png"
	}
	n, err := s.Store.Put(ctx, key, contentType, bytes.NewReader(img.Data))
	if err != nil {
		return Asset{}, &Error{Reason: "storage rejected the image", Err: err}
	}

	url, err := s.publicURL(ctx, key)
	if err != nil {
		return Asset{}, &Error{Reason: "could not build image url", Err: err}
	}
	return Asset{
		URL:       url,
		Key:       key,
		SizeBytes: n,
	}, nil
}

func (s *StoreSink) publicURL(ctx context.Context, key string) (string, error) {
	if s.BaseURL != "" {
		return s.BaseURL + "/" + key, nil
	}
	signer, ok := s.Store.(object.URLSigner)
	if !ok {
		return "", errors.New("no base url and store cannot sign urls")
	}
	ttl := s.SignedURLTTL
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return signer.SignedURL(ctx, key, ttl)
}

// ImageKey builds resume-images/<hashed owner>/<id>.<ext>.
func ImageKey(owner, id, mimeType string) string {
	if owner == "" {
		owner = "anonymous"
	}
	ext := "png"
	if mimeType == "image/jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s/%s/%s.%s", KeyPrefix, util.OwnerKey(owner), id, ext)
}

var _ Sink = (*StoreSink)(nil)
