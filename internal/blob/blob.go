// Package blob stores listing and identity images and hands back stable
// {url, handle} descriptors.
package blob

import (
	"context"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Image is a stored blob. Handle is whatever the backend needs to delete it.
type Image struct {
	URL    string `json:"url"`
	Handle string `json:"handle"`
}

// Upload is one incoming file.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type Store interface {
	Put(ctx context.Context, upload Upload) (Image, error)
	Delete(ctx context.Context, handle string) error
}

const maxParallelUploads = 4

// PutAll uploads in parallel and returns images in input order. On failure the
// images already stored are left in place.
func PutAll(ctx context.Context, store Store, uploads []Upload) ([]Image, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	images := make([]Image, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, u := range uploads {
		g.Go(func() error {
			img, err := store.Put(gctx, u)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

// DeleteAll removes images best-effort, logging failures.
func DeleteAll(ctx context.Context, store Store, logger *slog.Logger, images []Image) {
	for _, img := range images {
		if img.Handle == "" {
			continue
		}
		if err := store.Delete(ctx, img.Handle); err != nil && logger != nil {
			logger.WarnContext(ctx, "failed to delete blob",
				"handle", img.Handle,
				"error", err,
			)
		}
	}
}
