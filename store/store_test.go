package store

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/nczempin/httpd-go-uring/errors"
)

func setupDir(t *testing.T, files ...string) (*Dir, string) {
	t.Helper()

	root := t.TempDir()
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(name), 0o644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}
	return New(root), root
}

func TestDir_Names(t *testing.T) {
	dir, root := setupDir(t, "file1.html", "image2.jpg")
	if err := os.Mkdir(filepath.Join(root, "file3.html"), 0o755); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	names, err := dir.Names()
	if err != nil {
		t.Fatalf("Names failed: %v", err)
	}
	sort.Strings(names)

	if len(names) != 2 || names[0] != "file1.html" || names[1] != "image2.jpg" {
		t.Errorf("Expected [file1.html image2.jpg], got %v", names)
	}
}

func TestDir_Names_Missing(t *testing.T) {
	dir := New(filepath.Join(t.TempDir(), "nope"))

	_, err := dir.Names()
	httpErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("Expected *errors.HttpError, got %T", err)
	}
	if httpErr.FilesystemErr != errors.FilesystemErrorDirectoryReadFailure {
		t.Errorf("Expected DirectoryReadFailure, got %v", httpErr.FilesystemErr)
	}
}

func TestDir_Snapshot(t *testing.T) {
	dir, root := setupDir(t, "file1.html")

	snap, err := dir.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !snap.Contains("file1.html") {
		t.Error("Snapshot should contain file1.html")
	}
	if snap.Contains("file1.htm") || snap.Contains("file1.html ") || snap.Contains("") {
		t.Error("Snapshot must match names exactly")
	}

	// A snapshot does not see later changes
	os.WriteFile(filepath.Join(root, "file2.html"), nil, 0o644)
	if snap.Contains("file2.html") {
		t.Error("Snapshot should not observe files created after it was taken")
	}
}

func TestDir_Path(t *testing.T) {
	dir, root := setupDir(t)

	path, err := dir.Path("file1.html")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if path != filepath.Join(root, "file1.html") {
		t.Errorf("Unexpected path %s", path)
	}

	for _, bad := range []string{"", ".", "..", "../x", "a/b", "/etc/passwd"} {
		if _, err := dir.Path(bad); err == nil {
			t.Errorf("Expected %q to be rejected", bad)
		}
	}
}

func TestDir_Open(t *testing.T) {
	dir, _ := setupDir(t, "file1.html")

	f, info, err := dir.Open("file1.html")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if info.Size() != int64(len("file1.html")) {
		t.Errorf("Expected size %d, got %d", len("file1.html"), info.Size())
	}
}

func TestDir_Open_Failures(t *testing.T) {
	dir, root := setupDir(t)
	os.Mkdir(filepath.Join(root, "sub"), 0o755)

	for _, name := range []string{"missing.html", "sub", "../x"} {
		f, _, err := dir.Open(name)
		if err == nil {
			f.Close()
			t.Errorf("Expected opening %q to fail", name)
		}
	}
}

func TestDir_Create(t *testing.T) {
	dir, root := setupDir(t, "test.txt")

	if err := dir.Create("test.txt", nil); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(root, "test.txt"))
	if len(data) != 0 {
		t.Errorf("Expected an empty file, got %q", data)
	}

	if err := dir.Create("body.txt", []byte("name=body.txt")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(root, "body.txt"))
	if string(data) != "name=body.txt" {
		t.Errorf("Expected the body, got %q", data)
	}
}

func TestDir_Create_Failure(t *testing.T) {
	dir := New(filepath.Join(t.TempDir(), "missing"))

	err := dir.Create("test.txt", nil)
	httpErr, ok := errors.As(err)
	if !ok {
		t.Fatalf("Expected *errors.HttpError, got %T", err)
	}
	if httpErr.FilesystemErr != errors.FilesystemErrorFileCreateFailure {
		t.Errorf("Expected FileCreateFailure, got %v", httpErr.FilesystemErr)
	}

	err = dir.Create("../escape", nil)
	httpErr, ok = errors.As(err)
	if !ok || httpErr.FilesystemErr != errors.FilesystemErrorInvalidName {
		t.Errorf("Expected InvalidName, got %v", err)
	}
}
