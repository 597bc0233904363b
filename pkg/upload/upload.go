package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when a stored file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrTypeNotAllowed is returned when a file's MIME type is not in
// Config.AllowedTypes.
var ErrTypeNotAllowed = errors.New("upload: file type not allowed")

// Meta describes a file being stored.
type Meta struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Store is the interface for upload storage backends.
type Store interface {
	// Save stores the file contents and returns its ID.
	Save(ctx context.Context, meta Meta, r io.Reader) (id string, err error)

	// Claim retrieves a stored file. The stored copy is removed once the
	// returned file is closed.
	Claim(ctx context.Context, id string) (*File, error)

	// Cleanup removes files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File is a claimed upload.
type File struct {
	ID string
	Meta

	// Path is the local filesystem path (DiskStore).
	Path string

	// URL locates the object in remote storage (S3Store).
	URL string

	// Reader provides access to the file contents.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// Config holds the limits applied before a file reaches the store.
type Config struct {
	// MaxFileSize is the maximum allowed file size in bytes.
	// Default: 10MB.
	MaxFileSize int64

	// AllowedTypes lists accepted MIME types. An entry ending in "/*"
	// accepts the whole family. Empty allows everything.
	AllowedTypes []string

	// TempExpiry is how long stored files live before cleanup.
	// Default: 1 hour.
	TempExpiry time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: 10 * 1024 * 1024,
		TempExpiry:  time.Hour,
	}
}

// Allows reports whether contentType passes AllowedTypes.
func (c *Config) Allows(contentType string) bool {
	if len(c.AllowedTypes) == 0 {
		return true
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	for _, allowed := range c.AllowedTypes {
		allowed = strings.ToLower(allowed)
		if family, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(contentType, family+"/") {
				return true
			}
			continue
		}
		if contentType == allowed {
			return true
		}
	}
	return false
}

func (c *Config) check(meta Meta) error {
	if c.MaxFileSize > 0 && meta.Size > c.MaxFileSize {
		return ErrTooLarge
	}
	if !c.Allows(meta.ContentType) {
		return ErrTypeNotAllowed
	}
	return nil
}

// Handler returns an http.Handler that stores files posted by the
// browser client when it hands a drop to the server.
//
// The handler expects a multipart form with one or more "file" fields
// and returns the stored IDs in field order:
//
//	{"ids": ["abc123", "def456"]}
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultConfig())
}

// HandlerWithConfig returns an upload handler with custom configuration.
func HandlerWithConfig(store Store, config *Config) http.Handler {
	if config == nil {
		config = DefaultConfig()
	}
	maxSize := config.MaxFileSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		headers := r.MultipartForm.File["file"]
		if len(headers) == 0 {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}

		ids := make([]string, 0, len(headers))
		for _, header := range headers {
			meta := Meta{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Size:        header.Size,
			}
			if err := config.check(meta); err != nil {
				writeStoreError(w, err)
				return
			}

			file, err := header.Open()
			if err != nil {
				http.Error(w, "Failed to read file", http.StatusBadRequest)
				return
			}
			id, err := store.Save(r.Context(), meta, file)
			file.Close()
			if err != nil {
				writeStoreError(w, err)
				return
			}
			ids = append(ids, id)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"ids": ids})
	})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, ErrTypeNotAllowed):
		http.Error(w, "File type not allowed", http.StatusUnsupportedMediaType)
	default:
		http.Error(w, "Upload failed", http.StatusInternalServerError)
	}
}
