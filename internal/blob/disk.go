package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk writes images under dir and serves them from urlPrefix. The handle is
// the generated file name.
type Disk struct {
	dir       string
	urlPrefix string
}

func NewDisk(dir, urlPrefix string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Disk{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (d *Disk) Dir() string { return d.dir }

func (d *Disk) Put(_ context.Context, upload Upload) (Image, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(upload.Name))
	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return Image{}, fmt.Errorf("create blob: %w", err)
	}
	if _, err := io.Copy(f, upload.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Image{}, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return Image{}, fmt.Errorf("close blob: %w", err)
	}
	return Image{URL: d.urlPrefix + "/" + name, Handle: name}, nil
}

func (d *Disk) Delete(_ context.Context, handle string) error {
	if handle == "" || handle != filepath.Base(handle) {
		return fmt.Errorf("invalid blob handle %q", handle)
	}
	err := os.Remove(filepath.Join(d.dir, handle))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
