package upload_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/vango-dev/dnd/pkg/upload"
)

type recordingStore struct {
	saved  []upload.Meta
	saveFn func(meta upload.Meta, r io.Reader) (string, error)
}

func (s *recordingStore) Save(_ context.Context, meta upload.Meta, r io.Reader) (string, error) {
	s.saved = append(s.saved, meta)
	if s.saveFn != nil {
		return s.saveFn(meta, r)
	}
	return "id-" + meta.Filename, nil
}

func (s *recordingStore) Claim(context.Context, string) (*upload.File, error) {
	return nil, errors.New("not implemented")
}

func (s *recordingStore) Cleanup(context.Context, time.Duration) error {
	return errors.New("not implemented")
}

type part struct {
	filename    string
	contentType string
	content     []byte
}

func newMultipartRequest(t *testing.T, parts ...part) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="file"; filename="`+p.filename+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := writer.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := w.Write(p.content); err != nil {
			t.Fatalf("part.Write: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("writer.Close: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/dnd/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandler_RejectsNonPOST(t *testing.T) {
	h := upload.Handler(&recordingStore{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dnd/upload", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandler_FailsWhenNotMultipart(t *testing.T) {
	h := upload.Handler(&recordingStore{})
	req := httptest.NewRequest(http.MethodPost, "/dnd/upload", bytes.NewReader([]byte("x")))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandler_StoresEveryFile(t *testing.T) {
	store := &recordingStore{}
	h := upload.Handler(store)

	req := newMultipartRequest(t,
		part{"a.txt", "text/plain", []byte("a")},
		part{"b.png", "image/png", []byte("b")},
	)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.IDs) != 2 || resp.IDs[0] != "id-a.txt" || resp.IDs[1] != "id-b.png" {
		t.Errorf("ids = %v", resp.IDs)
	}
	if store.saved[1].ContentType != "image/png" {
		t.Errorf("ContentType = %q", store.saved[1].ContentType)
	}
}

func TestHandler_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		config *upload.Config
		err    error
		want   int
	}{
		{"type not allowed", &upload.Config{AllowedTypes: []string{"image/*"}}, nil, http.StatusUnsupportedMediaType},
		{"store too large", nil, upload.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{"store failure", nil, errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			if tt.err != nil {
				store.saveFn = func(upload.Meta, io.Reader) (string, error) { return "", tt.err }
			}
			h := upload.HandlerWithConfig(store, tt.config)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, newMultipartRequest(t, part{"a.txt", "text/plain", []byte("a")}))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_NoFileField(t *testing.T) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("other", "x")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/dnd/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	upload.Handler(&recordingStore{}).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
