// Package files stores uploaded media on disk. It is a collaborator
// boundary: the core hands it decoded bytes and receives back the path a
// client can fetch the asset from.
package files

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk writes uploads under a single directory, one random name per
// upload so nothing ever collides or overwrites.
type Disk struct {
	dir string
}

func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating files dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) Dir() string { return d.dir }

// Save writes data as a new file with the given extension and returns
// the file name to serve it under.
func (d *Disk) Save(data []byte, ext string) (string, error) {
	name := uuid.NewString() + "." + strings.TrimPrefix(ext, ".")
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("writing upload: %w", err)
	}
	return name, nil
}

// SaveZip extracts an uploaded archive into a new directory and returns
// the directory name. Entries escaping the target directory are rejected.
func (d *Disk) SaveZip(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening archive: %w", err)
	}

	name := uuid.NewString()
	root := filepath.Join(d.dir, name)
	for _, entry := range reader.File {
		target := filepath.Join(root, filepath.Clean("/"+entry.Name))
		if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return "", fmt.Errorf("archive entry %q escapes target", entry.Name)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return "", err
		}
		src, err := entry.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return "", err
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return "", err
		}
	}
	return name, nil
}
