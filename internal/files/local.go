package files

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
)

var (
	ErrFileTooLarge = errors.New("file exceeds maximum size")
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidName  = errors.New("invalid file name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Storage saves and loads product images by product id and file name
type Storage interface {
	Save(id, name string, contents io.Reader) error
	Get(id, name string) (*os.File, error)
	DeleteAll(id string) error
}

// Local stores files on the local disk below basePath
type Local struct {
	maxFileSize int64 // Maximum number of bytes for files
	basePath    string
}

// NewLocal creates a new Local filesystem with the given base path
// basePath is the base directory to save the files to
// maxSize is the max number of bytes that a file can be
func NewLocal(basePath string, maxSize int64) (*Local, error) {
	p, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	return &Local{basePath: p, maxFileSize: maxSize}, nil
}

// Save writes contents to a temp file next to the destination and renames
// it into place, so readers never see a partial file.
func (l *Local) Save(id, name string, contents io.Reader) error {
	fp, err := l.fullPath(id, name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fp)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("unable to create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "temp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	// read one byte past the limit to detect oversized uploads
	written, err := io.Copy(tempFile, io.LimitReader(contents, l.maxFileSize+1))
	if err != nil {
		tempFile.Close()
		return fmt.Errorf("unable to write to file: %w", err)
	}

	if err = tempFile.Close(); err != nil {
		return fmt.Errorf("unable to close temporary file: %w", err)
	}

	if written > l.maxFileSize {
		return fmt.Errorf("%w of %d bytes", ErrFileTooLarge, l.maxFileSize)
	}

	if err := os.Rename(tempPath, fp); err != nil {
		return fmt.Errorf("unable to move temporary file to final location: %w", err)
	}

	return nil
}

// Get opens a stored file. The caller closes it.
func (l *Local) Get(id, name string) (*os.File, error) {
	fp, err := l.fullPath(id, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fp)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open the file: %w", err)
	}

	return f, nil
}

// DeleteAll removes the directory holding every file of id. A missing
// directory is not an error.
func (l *Local) DeleteAll(id string) error {
	if err := checkName(id); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(l.basePath, id)); err != nil {
		return fmt.Errorf("unable to remove files: %w", err)
	}
	return nil
}

func (l *Local) fullPath(id, name string) (string, error) {
	for _, part := range []string{id, name} {
		if err := checkName(part); err != nil {
			return "", err
		}
	}
	return filepath.Join(l.basePath, id, name), nil
}

func checkName(part string) error {
	if !validName.MatchString(part) || part == "." || part == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, part)
	}
	return nil
}
