package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cvforge/internal/api/middleware"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// memoryCounter 在内存里模拟 INCR/EXPIRE。
type memoryCounter struct {
	counts map[string]int64
}

func (m *memoryCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(m.counts[key])
	return cmd
}

func (m *memoryCounter) Expire(ctx context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadAs(t *testing.T, h *AssetHandler, userID uint, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := newMultipartUpload(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/v1/assets/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(middleware.UserIDKey, userID)

	h.UploadAsset(c)
	return w
}

func TestUploadAsset_StoresUnderUserPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	storage := newFakeStorage()
	h := NewAssetHandler(storage, fakeScanner{}, nil)

	w := uploadAs(t, h, 1, "me.txt", pngHeader)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 1 {
		t.Fatalf("expected one upload, got %d", len(storage.uploaded))
	}
	for key := range storage.uploaded {
		if !strings.HasPrefix(key, "users/1/photos/") || !strings.HasSuffix(key, ".png") {
			t.Fatalf("unexpected object key %q", key)
		}
		if !isValidUserPhotoKey(1, key) {
			t.Fatalf("uploaded key %q should be accepted as a photo key", key)
		}
	}
}

func TestUploadAsset_RejectsNonImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	storage := newFakeStorage()
	h := NewAssetHandler(storage, fakeScanner{}, nil)

	w := uploadAs(t, h, 1, "photo.png", []byte("just some text pretending to be a png"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("nothing should be stored")
	}
}

func TestUploadAsset_RejectsInfected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	storage := newFakeStorage()
	h := NewAssetHandler(storage, fakeScanner{infected: true}, nil)

	w := uploadAs(t, h, 1, "photo.png", pngHeader)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 0 {
		t.Fatalf("infected file must not be stored")
	}
}

func TestUploadAsset_RejectsOversized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAssetHandler(newFakeStorage(), fakeScanner{}, nil)
	h.MaxBytes = 8

	w := uploadAs(t, h, 1, "photo.png", pngHeader)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUploadAsset_DailyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAssetHandler(newFakeStorage(), fakeScanner{}, nil)
	h.uploads = newWindowLimiter(&memoryCounter{counts: map[string]int64{}}, "rate:upload:", 24*time.Hour, 2)

	for i := 0; i < 2; i++ {
		if w := uploadAs(t, h, 1, "photo.png", pngHeader); w.Code != http.StatusCreated {
			t.Fatalf("upload %d: expected 201 got %d", i, w.Code)
		}
	}
	w := uploadAs(t, h, 1, "photo.png", pngHeader)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetAssetURL_ForeignKeyIsNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewAssetHandler(newFakeStorage(), fakeScanner{}, nil)

	cases := []struct {
		key  string
		want int
	}{
		{"users/1/photos/a.png", http.StatusOK},
		{"users/2/photos/a.png", http.StatusNotFound},
		{"users/1/photos/../../2/photos/a.png", http.StatusNotFound},
		{"users/1/photos/a.exe", http.StatusNotFound},
		{"", http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/assets/view?key="+tc.key, nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req
		c.Set(middleware.UserIDKey, uint(1))

		h.GetAssetURL(c)
		if w.Code != tc.want {
			t.Errorf("key %q: expected %d got %d", tc.key, tc.want, w.Code)
		}
	}
}
