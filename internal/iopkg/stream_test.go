package iopkg

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "z.txt")
	content := "hello world\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil { t.Fatal(err) }
	rc, sz, err := Open(p)
	if err != nil { t.Fatalf("Open err: %v", err) }
	defer rc.Close()
	if sz != int64(len(content)) { t.Fatalf("size got %d want %d", sz, len(content)) }
	b, _ := io.ReadAll(rc)
	if string(b) != content { t.Fatalf("content mismatch: %q", string(b)) }
}

func TestCreateMakesParent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "nested", "out.txt")
	w, c, err := Create(p)
	if err != nil { t.Fatalf("Create err: %v", err) }
	_, _ = w.Write([]byte("abc"))
	if err := c.Close(); err != nil { t.Fatalf("close err: %v", err) }
	b, _ := os.ReadFile(p)
	if string(b) != "abc" { t.Fatalf("file content: %q", string(b)) }
}

func TestEnsureDirIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")
	if err := EnsureDir(dir); err != nil { t.Fatal(err) }
	keep := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(keep, []byte("x"), 0o644); err != nil { t.Fatal(err) }
	if err := EnsureDir(dir); err != nil { t.Fatalf("second EnsureDir: %v", err) }
	b, err := os.ReadFile(keep)
	if err != nil || string(b) != "x" { t.Fatalf("existing content altered: %q %v", b, err) }
}

func TestWriteTextMissingDir(t *testing.T) {
	err := WriteText(filepath.Join(t.TempDir(), "missing", "f.txt"), "hi")
	if !errors.Is(err, fs.ErrNotExist) { t.Fatalf("want ErrNotExist, got %v", err) }
}

func TestCopyDirOverwrites(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("new"), 0o644); err != nil { t.Fatal(err) }
	if err := os.Mkdir(filepath.Join(src, "sub"), 0o755); err != nil { t.Fatal(err) }
	if err := os.WriteFile(filepath.Join(dst, "a.txt"), []byte("old-and-longer"), 0o644); err != nil { t.Fatal(err) }
	copied, err := CopyDir(src, dst)
	if err != nil { t.Fatalf("CopyDir: %v", err) }
	if len(copied) != 1 || copied[0] != filepath.Join(dst, "a.txt") { t.Fatalf("copied=%v", copied) }
	b, _ := os.ReadFile(filepath.Join(dst, "a.txt"))
	if string(b) != "new" { t.Fatalf("not overwritten: %q", b) }
	if _, err := os.Stat(filepath.Join(dst, "sub")); !errors.Is(err, fs.ErrNotExist) { t.Fatalf("subdir copied: %v", err) }
}

func TestTempDirRelease(t *testing.T) {
	dir, release, err := TempDir(t.TempDir(), "iopkg-*")
	if err != nil { t.Fatal(err) }
	if err := os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0o644); err != nil { t.Fatal(err) }
	if err := release(); err != nil { t.Fatalf("release: %v", err) }
	if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) { t.Fatalf("temp dir survived: %v", err) }
	if err := release(); err != nil { t.Fatalf("second release: %v", err) }
}
