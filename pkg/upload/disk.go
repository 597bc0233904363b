package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const metaSuffix = ".meta"

// DiskStore stores uploads in a local directory. Each file is written
// under its ID with a JSON sidecar holding its Meta, so a restarted
// store can still claim it.
type DiskStore struct {
	dir     string
	maxSize int64

	mu    sync.RWMutex
	files map[string]*diskMeta
}

type diskMeta struct {
	Meta
	CreatedAt time.Time `json:"created_at"`
}

// NewDiskStore creates the directory if needed. maxSize limits file size
// in bytes (0 = no limit).
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{
		dir:     dir,
		maxSize: maxSize,
		files:   make(map[string]*diskMeta),
	}, nil
}

// Dir returns the storage directory.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes r to disk and returns the new file's ID.
func (s *DiskStore) Save(ctx context.Context, meta Meta, r io.Reader) (string, error) {
	if s.maxSize > 0 && meta.Size > s.maxSize {
		return "", ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := generateID()
	path := filepath.Join(s.dir, id)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// The declared size is not trusted; read one byte past the limit to
	// detect overflow.
	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	meta.Size = written
	dm := &diskMeta{Meta: meta, CreatedAt: time.Now()}

	s.mu.Lock()
	s.files[id] = dm
	s.mu.Unlock()

	if err := s.saveMeta(id, dm); err != nil {
		os.Remove(path)
		s.mu.Lock()
		delete(s.files, id)
		s.mu.Unlock()
		return "", err
	}
	return id, nil
}

// Claim opens a stored file. Closing it deletes the file and its sidecar.
func (s *DiskStore) Claim(ctx context.Context, id string) (*File, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	dm, ok := s.files[id]
	if ok {
		delete(s.files, id)
	}
	s.mu.Unlock()

	if !ok {
		var err error
		dm, err = s.loadMeta(id)
		if err != nil {
			return nil, ErrNotFound
		}
	}

	path := filepath.Join(s.dir, id)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &File{
		ID:     id,
		Meta:   dm.Meta,
		Path:   path,
		Reader: &deleteOnCloseReader{File: f, path: path, metaPath: s.metaPath(id)},
	}, nil
}

// Cleanup removes files and sidecars older than maxAge.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, dm := range s.files {
		if dm.CreatedAt.Before(cutoff) {
			delete(s.files, id)
		}
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DiskStore) metaPath(id string) string {
	return filepath.Join(s.dir, id+metaSuffix)
}

func (s *DiskStore) saveMeta(id string, dm *diskMeta) error {
	data, err := json.Marshal(dm)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(id), data, 0644)
}

func (s *DiskStore) loadMeta(id string) (*diskMeta, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, err
	}
	var dm diskMeta
	if err := json.Unmarshal(data, &dm); err != nil {
		return nil, err
	}
	return &dm, nil
}

// generateID returns 32 random hex characters.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// validID rejects IDs that could escape the storage directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\.`)
}

type deleteOnCloseReader struct {
	*os.File
	path     string
	metaPath string
}

func (r *deleteOnCloseReader) Close() error {
	err := r.File.Close()
	os.Remove(r.path)
	os.Remove(r.metaPath)
	return err
}
