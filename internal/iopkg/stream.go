package iopkg

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir creates dir and any parents. Existing directories and their
// contents are left untouched.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// Create creates (or truncates) a local file, making its parent directory first.
func Create(path string) (io.Writer, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { return nil, nil, err }
	f, err := os.Create(path)
	if err != nil { return nil, nil, err }
	return f, f, nil
}

// WriteText writes text to path in an existing directory. A missing directory
// surfaces as fs.ErrNotExist.
func WriteText(path, text string) error {
	return os.WriteFile(path, []byte(text), 0o644)
}

// Open returns a ReadCloser and size for a local file.
func Open(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil { return nil, 0, err }
	st, _ := f.Stat()
	var sz int64
	if st != nil { sz = st.Size() }
	return f, sz, nil
}

// CopyFile copies src to dst, overwriting dst if it exists.
func CopyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil { return err }
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil { return err }
	defer func() {
		if cerr := out.Close(); err == nil { err = cerr }
	}()
	_, err = io.Copy(out, in)
	return err
}

// CopyDir copies every regular file directly inside srcDir into dstDir and
// returns the destination paths. Subdirectories are not descended into.
func CopyDir(srcDir, dstDir string) ([]string, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil { return nil, err }
	var copied []string
	for _, e := range entries {
		if !e.Type().IsRegular() { continue }
		dst := filepath.Join(dstDir, e.Name())
		if err := CopyFile(filepath.Join(srcDir, e.Name()), dst); err != nil {
			return copied, err
		}
		copied = append(copied, dst)
	}
	return copied, nil
}

// TempDir creates a fresh, uniquely named directory under root (the system
// temp dir when root is empty) and returns it with a release func that removes
// it and everything inside.
func TempDir(root, pattern string) (string, func() error, error) {
	dir, err := os.MkdirTemp(root, pattern)
	if err != nil { return "", nil, err }
	return dir, func() error {
		if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}, nil
}
