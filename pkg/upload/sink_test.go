package upload_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/vango-dev/dnd"
	"github.com/vango-dev/dnd/pkg/dndtest"
	"github.com/vango-dev/dnd/pkg/dom"
	"github.com/vango-dev/dnd/pkg/dom/memdom"
	"github.com/vango-dev/dnd/pkg/options"
	"github.com/vango-dev/dnd/pkg/upload"
)

func TestSink_SavesDroppedAndChosenFiles(t *testing.T) {
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	doc := memdom.New()
	zone := doc.CreateElement("div", "zone")
	dc := dnd.Drop(doc, dnd.Elements(zone), options.DropOptions{Click: true})

	sink := upload.NewSink(store)
	sink.Attach(dc)

	var notified []string
	sink.OnSaved(func(s upload.Saved) { notified = append(notified, s.Name) })

	dndtest.DropFiles(zone, dndtest.TextFile("a.txt", "aaa"), dndtest.TextFile("b.txt", "bb"))
	zone.Click()
	dc.Chooser().(*memdom.Element).SelectFiles(dndtest.TextFile("c.txt", "c"))

	saved := sink.Saved()
	if len(saved) != 3 {
		t.Fatalf("saved %d files, want 3", len(saved))
	}
	wantSources := []string{upload.SourceDrop, upload.SourceDrop, upload.SourceChooser}
	for i, s := range saved {
		if s.Source != wantSources[i] {
			t.Errorf("saved[%d].Source = %q, want %q", i, s.Source, wantSources[i])
		}
	}
	if len(notified) != 3 || notified[2] != "c.txt" {
		t.Errorf("notified = %v", notified)
	}

	file, err := store.Claim(context.Background(), saved[0].ID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	defer file.Close()
	data, _ := io.ReadAll(file.Reader)
	if string(data) != "aaa" {
		t.Errorf("stored contents = %q, want aaa", data)
	}
}

func TestSink_RejectsByConfig(t *testing.T) {
	store, err := upload.NewDiskStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	sink := upload.NewSink(store, upload.WithConfig(&upload.Config{
		MaxFileSize:  4,
		AllowedTypes: []string{"image/*"},
	}))

	var rejected []error
	sink.OnError(func(_ dom.File, err error) { rejected = append(rejected, err) })

	files := []dom.File{
		dom.BytesFile("ok.png", "image/png", []byte("png")),
		dom.BytesFile("big.png", "image/png", []byte("too big")),
		dom.BytesFile("doc.txt", "text/plain", []byte("t")),
	}
	saved, err := sink.Save(files, upload.SourceDrop)

	if len(saved) != 1 || saved[0].Name != "ok.png" {
		t.Errorf("saved = %+v", saved)
	}
	if !errors.Is(err, upload.ErrTooLarge) || !errors.Is(err, upload.ErrTypeNotAllowed) {
		t.Errorf("err = %v, want both limits reported", err)
	}
	if len(rejected) != 2 {
		t.Errorf("rejected = %v", rejected)
	}
}

func TestConfig_Allows(t *testing.T) {
	c := &upload.Config{AllowedTypes: []string{"image/*", "application/pdf"}}
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/png", true},
		{"IMAGE/JPEG", true},
		{"application/pdf; charset=binary", true},
		{"application/json", false},
		{"imagex/png", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.Allows(tt.contentType); got != tt.want {
			t.Errorf("Allows(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}

	if !(&upload.Config{}).Allows("anything/else") {
		t.Error("empty AllowedTypes should allow everything")
	}
}
