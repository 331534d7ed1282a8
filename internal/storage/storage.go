// Package storage keeps generated documents and uploaded branding images on
// local disk. References handed out are paths relative to the root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidName = errors.New("storage: invalid artifact name")

// ImageTypes are the upload extensions accepted for branding images.
var ImageTypes = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

type Disk struct {
	Root string
}

func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Disk{Root: root}, nil
}

// Path resolves a reference to its location on disk.
func (d *Disk) Path(ref string) (string, error) {
	clean := path.Clean("/" + filepath.ToSlash(ref))
	if clean == "/" || strings.Contains(ref, "..") {
		return "", ErrInvalidName
	}
	return filepath.Join(d.Root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// Save writes data under name, replacing any previous content.
func (d *Disk) Save(ctx context.Context, name string, data []byte) (string, error) {
	return d.write(ctx, name, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// SaveImage stores an uploaded branding image under a fresh name.
func (d *Disk) SaveImage(ctx context.Context, kind, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !ImageTypes[ext] {
		return "", fmt.Errorf("storage: unsupported image type %q", ext)
	}
	name := "branding/" + kind + "-" + uuid.NewString() + ext
	return d.write(ctx, name, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

func (d *Disk) write(ctx context.Context, name string, fill func(io.Writer) error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := d.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if err := fill(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	return filepath.ToSlash(name), nil
}

// Remove deletes a stored artifact. A missing file is not an error.
func (d *Disk) Remove(ctx context.Context, ref string) error {
	target, err := d.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
