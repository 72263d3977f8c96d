// Package store is the allow-listed directory: the only place the server
// reads files from and writes uploads to.
package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nczempin/httpd-go-uring/errors"
)

// DefaultRoot is the allow-listed directory relative to the working directory.
const DefaultRoot = "./data"

// Dir is an allow-listed directory. It holds no state besides its root;
// every call observes the live filesystem.
type Dir struct {
	root string
}

// New returns a Dir rooted at root
func New(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory path
func (d *Dir) Root() string {
	return d.root
}

// Names returns the names of the non-directory entries, in the order the
// filesystem enumerates them.
func (d *Dir) Names() ([]string, error) {
	f, err := os.Open(d.root)
	if err != nil {
		return nil, errors.NewFilesystemError(
			errors.FilesystemErrorDirectoryReadFailure,
			"failed to open "+d.root,
			err,
		)
	}
	defer f.Close()

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, errors.NewFilesystemError(
			errors.FilesystemErrorDirectoryReadFailure,
			"failed to list "+d.root,
			err,
		)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Snapshot is a point-in-time set of permitted file names
type Snapshot map[string]struct{}

// Snapshot lists the directory once into a set.
func (d *Dir) Snapshot() (Snapshot, error) {
	names, err := d.Names()
	if err != nil {
		return nil, err
	}
	set := make(Snapshot, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// Contains reports whether name was present when the snapshot was taken
func (s Snapshot) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Path joins name onto the root. Names that would leave the directory
// are rejected.
func (d *Dir) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return "", errors.NewFilesystemError(
			errors.FilesystemErrorInvalidName,
			"refusing name "+name,
			nil,
		)
	}
	return filepath.Join(d.root, name), nil
}

// Open stats and opens name for reading. The returned info is the metadata
// taken before the open; callers trust it for the rest of the response.
func (d *Dir) Open(name string) (*os.File, fs.FileInfo, error) {
	path, err := d.Path(name)
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, errors.NewFilesystemError(errors.FilesystemErrorFileReadFailure, "stat "+path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, errors.NewFilesystemError(errors.FilesystemErrorFileReadFailure, path+" is not a regular file", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.NewFilesystemError(errors.FilesystemErrorFileReadFailure, "open "+path, err)
	}
	return f, info, nil
}

// Create creates or truncates name and writes body into it. A nil body
// leaves the file empty.
func (d *Dir) Create(name string, body []byte) error {
	path, err := d.Path(name)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.NewFilesystemError(errors.FilesystemErrorFileCreateFailure, "create "+path, err)
	}

	if len(body) > 0 {
		if _, err := f.Write(body); err != nil {
			f.Close()
			return errors.NewFilesystemError(errors.FilesystemErrorFileWriteFailure, "write "+path, err)
		}
	}

	if err := f.Close(); err != nil {
		return errors.NewFilesystemError(errors.FilesystemErrorFileWriteFailure, "close "+path, err)
	}
	return nil
}
