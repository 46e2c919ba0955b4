package photo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
)

type upload struct {
	Path        string
	ContentType string
}

type MockBlobStore struct {
	mu         sync.Mutex
	Uploads    []upload
	FailUpload map[string]bool // path suffixes
	FailSign   map[string]bool
	SignTTLs   []time.Duration
	signCount  int
}

func (m *MockBlobStore) UploadBlob(ctx context.Context, path string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for suffix := range m.FailUpload {
		if strings.HasSuffix(path, suffix) {
			return common_models.ErrUpload
		}
	}
	m.Uploads = append(m.Uploads, upload{Path: path, ContentType: contentType})
	return nil
}

func (m *MockBlobStore) SignedReadURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SignTTLs = append(m.SignTTLs, ttl)
	m.signCount++
	if m.FailSign[path] {
		return "", common_models.ErrNotFound
	}
	return "https://cdn.test/" + path, nil
}

type MapSource map[string][]byte

func (s MapSource) Read(ctx context.Context, uri string) ([]byte, error) {
	data, ok := s[uri]
	if !ok {
		return nil, errors.New("no such image")
	}
	return data, nil
}

func newTestPipeline(blobs *MockBlobStore, source ImageSource) *Pipeline {
	p := NewPipeline(blobs, source, zap.NewNop())
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return p
}

func TestAddToSelection(t *testing.T) {
	tests := []struct {
		name      string
		selection []string
		add       []string
		want      []string
	}{
		{name: "under cap", selection: []string{"a"}, add: []string{"b"}, want: []string{"a", "b"}},
		{name: "fourth drops oldest", selection: []string{"a", "b", "c"}, add: []string{"d"}, want: []string{"b", "c", "d"}},
		{name: "batch overflow keeps latest three", selection: []string{"a"}, add: []string{"b", "c", "d", "e"}, want: []string{"c", "d", "e"}},
		{name: "empty", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddToSelection(tt.selection, tt.add...)
			if len(got) != len(tt.want) || (len(got) > 0 && !slices.Equal(got, tt.want)) {
				t.Errorf("AddToSelection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddToSelectionDoesNotAlias(t *testing.T) {
	base := make([]string, 2, 8)
	base[0], base[1] = "a", "b"
	_ = AddToSelection(base, "c")
	if got := base[:3][2]; got != "" {
		t.Errorf("input backing array mutated: %q", got)
	}
}

func TestPathFor(t *testing.T) {
	user := "user-1"
	if got := PathFor(&user, "r1", 1700000000000, 2, "png"); got != "user-1/r1/1700000000000-2.png" {
		t.Errorf("PathFor(user) = %q", got)
	}
	if got := PathFor(nil, "r1", 5, 0, "jpg"); got != "guest/r1/5-0.jpg" {
		t.Errorf("PathFor(guest) = %q", got)
	}
}

func TestContentTypes(t *testing.T) {
	tests := []struct {
		uri     string
		ext     string
		content string
	}{
		{uri: "file:///tmp/a.JPG", ext: "jpg", content: "image/jpeg"},
		{uri: "/tmp/b.png", ext: "png", content: "image/png"},
		{uri: "/tmp/c.heic?x=1", ext: "heic", content: "image/heic"},
		{uri: "/tmp/noext", ext: "jpg", content: "image/jpeg"},
		{uri: "/tmp/d.bmp", ext: "bmp", content: "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			ext := ExtensionOf(tt.uri)
			if ext != tt.ext {
				t.Errorf("ExtensionOf() = %q, want %q", ext, tt.ext)
			}
			if ct := ContentTypeFor(ext); ct != tt.content {
				t.Errorf("ContentTypeFor() = %q, want %q", ct, tt.content)
			}
		})
	}
}

func TestUploadPartialFailure(t *testing.T) {
	source := MapSource{"a.jpg": []byte("a"), "b.png": []byte("b"), "c.jpg": []byte("c")}

	tests := []struct {
		name       string
		uris       []string
		failUpload map[string]bool
		want       []string
	}{
		{
			name: "all succeed in order",
			uris: []string{"a.jpg", "b.png"},
			want: []string{"guest/r1/1700000000000-0.jpg", "guest/r1/1700000000000-1.png"},
		},
		{
			name:       "middle upload fails",
			uris:       []string{"a.jpg", "b.png", "c.jpg"},
			failUpload: map[string]bool{"-1.png": true},
			want:       []string{"guest/r1/1700000000000-0.jpg", "guest/r1/1700000000000-2.jpg"},
		},
		{
			name: "unreadable image skipped",
			uris: []string{"missing.jpg", "a.jpg"},
			want: []string{"guest/r1/1700000000000-1.jpg"},
		},
		{
			name:       "all fail",
			uris:       []string{"a.jpg", "c.jpg"},
			failUpload: map[string]bool{".jpg": true},
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blobs := &MockBlobStore{FailUpload: tt.failUpload}
			got := newTestPipeline(blobs, source).Upload(context.Background(), nil, "r1", tt.uris)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Upload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	blobs := &MockBlobStore{FailSign: map[string]bool{"guest/r1/b.jpg": true}}
	p := newTestPipeline(blobs, MapSource{})
	paths := []string{"guest/r1/a.jpg", "guest/r1/b.jpg", "guest/r1/c.jpg"}

	got := p.Resolve(context.Background(), paths)
	if len(got) != 2 || !strings.Contains(got[0], "/a.jpg") || !strings.Contains(got[1], "/c.jpg") {
		t.Fatalf("Resolve() = %v", got)
	}
	for _, ttl := range blobs.SignTTLs {
		if ttl != time.Hour {
			t.Errorf("ttl = %v, want 1h", ttl)
		}
	}

	p.Resolve(context.Background(), paths)
	if blobs.signCount != 6 {
		t.Errorf("sign calls = %d, want 6 (no caching)", blobs.signCount)
	}
}

func TestResolveAllFail(t *testing.T) {
	blobs := &MockBlobStore{FailSign: map[string]bool{"x": true, "y": true}}
	got := newTestPipeline(blobs, MapSource{}).Resolve(context.Background(), []string{"x", "y"})
	if got == nil || len(got) != 0 {
		t.Errorf("Resolve() = %#v, want empty", got)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pic.jpg")
	if err := os.WriteFile(p, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, uri := range []string{p, "file://" + p} {
		data, err := FileSource{}.Read(context.Background(), uri)
		if err != nil || string(data) != "jpeg" {
			t.Errorf("Read(%q) = %q, %v", uri, data, err)
		}
	}
}
