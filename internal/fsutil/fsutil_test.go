package fsutil

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestReadFileScoped_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "latest.log")
	if err := os.WriteFile(p, []byte("hello"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	b, err := ReadFileScoped(p)
	if err != nil {
		t.Fatalf("ReadFileScoped error: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}

func TestReadFileScoped_RejectsInvalidPath(t *testing.T) {
	for _, p := range []string{"", ".", string(filepath.Separator)} {
		if _, err := ReadFileScoped(p); err == nil {
			t.Fatalf("expected error for %q", p)
		}
	}
}

func TestOpenScoped_NonexistentFile(t *testing.T) {
	_, err := OpenScoped(filepath.Join(t.TempDir(), "missing.log"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenScoped error = %v, want ErrNotExist", err)
	}
}

func TestOpenScoped_NonexistentDirectory(t *testing.T) {
	_, err := OpenScoped(filepath.Join(t.TempDir(), "nodir", "latest.log"))
	if err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestOpenScoped_FileOutlivesRoot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "latest.log")
	if err := os.WriteFile(p, []byte("line\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := OpenScoped(p)
	if err != nil {
		t.Fatalf("OpenScoped: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read after root closed: %v", err)
	}
	if string(data) != "line\n" {
		t.Errorf("content = %q", data)
	}
}
