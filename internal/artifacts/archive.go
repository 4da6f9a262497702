// Package artifacts bundles row logs into an lz4-compressed tar archive.
package artifacts

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// Entry is one member of an archive.
type Entry struct {
	Name string
	Size int64
}

// Archive writes files to dest. Each file is stored under its path relative
// to base. Missing files are skipped; the names of skipped files are returned.
func Archive(base string, paths []string, dest string) (skipped []string, err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	f, err := os.Create(dest) //nolint:gosec // dest is under the state directory
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	zw := lz4.NewWriter(f)
	tw := tar.NewWriter(zw)

	for _, p := range paths {
		ok, err := addFile(tw, base, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			skipped = append(skipped, p)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing lz4: %w", err)
	}
	return skipped, nil
}

func addFile(tw *tar.Writer, base, path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	name, err := filepath.Rel(base, path)
	if err != nil {
		name = filepath.Base(path)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return false, fmt.Errorf("tar header for %s: %w", path, err)
	}
	hdr.Name = filepath.ToSlash(name)
	if err := tw.WriteHeader(hdr); err != nil {
		return false, fmt.Errorf("writing header for %s: %w", name, err)
	}

	src, err := os.Open(path) //nolint:gosec // row log under the state directory
	if err != nil {
		return false, err
	}
	defer src.Close()
	if _, err := io.Copy(tw, src); err != nil {
		return false, fmt.Errorf("archiving %s: %w", name, err)
	}
	return true, nil
}

// List returns the members of an archive written by Archive.
func List(path string) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // archive path from the state directory
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(lz4.NewReader(f))
	var out []Entry
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		out = append(out, Entry{Name: hdr.Name, Size: hdr.Size})
	}
}

// Extract returns the contents of one member.
func Extract(path, name string) ([]byte, error) {
	f, err := os.Open(path) //nolint:gosec // archive path from the state directory
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	tr := tar.NewReader(lz4.NewReader(f))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: not in archive", name)
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if hdr.Name == name {
			return io.ReadAll(tr)
		}
	}
}
