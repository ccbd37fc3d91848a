package photos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dealdesk/server/internal/models"
)

var (
	ErrTooLarge        = errors.New("photo exceeds the size limit")
	ErrUnsupportedType = errors.New("photo must be a jpeg, png or webp image")
	ErrEmpty           = errors.New("photo is empty")
	ErrInvalidKey      = errors.New("invalid photo key")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Store keeps photo files on local disk under <dir>/<propertyID>/
type Store struct {
	dir      string
	maxBytes int64
	logger   *logrus.Logger
}

func NewStore(dir string, maxBytes int64, logger *logrus.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Store{dir: dir, maxBytes: maxBytes, logger: logger}, nil
}

// Save validates and writes an upload. The returned photo carries the
// object key and detected content type but is not persisted.
func (s *Store) Save(propertyID uint, fileName string, r io.Reader) (*models.Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedType, mtype.String())
	}

	key := strconv.FormatUint(uint64(propertyID), 10) + "/" + uuid.NewString() + mtype.Extension()
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create property photo directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write photo: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"property_id":  propertyID,
		"object_key":   key,
		"content_type": mtype.String(),
		"size_bytes":   len(data),
	}).Debug("Stored photo")

	return &models.Photo{
		PropertyID:  propertyID,
		ObjectKey:   key,
		FileName:    filepath.Base(fileName),
		ContentType: mtype.String(),
		SizeBytes:   int64(len(data)),
	}, nil
}

// Open returns a reader for a stored photo
func (s *Store) Open(key string) (io.ReadSeekCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes a stored photo. Missing files are not an error.
func (s *Store) Remove(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}

// RemoveProperty deletes every stored photo of a property
func (s *Store) RemoveProperty(propertyID uint) error {
	return os.RemoveAll(filepath.Join(s.dir, strconv.FormatUint(uint64(propertyID), 10)))
}

func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") || strings.ContainsRune(key, 0) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, clean), nil
}
