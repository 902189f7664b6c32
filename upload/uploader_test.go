package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pakcart/storesync/quota"
)

// stubQuota lets tests script the counter and its failure modes.
type stubQuota struct {
	usage    quota.Usage
	usageErr error
	recorded atomic.Int32
}

func (s *stubQuota) Usage(ctx context.Context, userID string) (quota.Usage, error) {
	return s.usage, s.usageErr
}

func (s *stubQuota) Record(ctx context.Context, userID string, when time.Time) error {
	s.recorded.Add(1)
	return nil
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newStorageServer is a fake storage endpoint that counts calls and captures
// the last multipart request.
func newStorageServer(t *testing.T) (*httptest.Server, *atomic.Int32, *map[string]string) {
	t.Helper()
	var calls atomic.Int32
	fields := map[string]string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if err := r.ParseMultipartForm(200 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"secure_url": "https://media.example/noorbazaar/abc123.png",
			"public_id":  "noorbazaar/abc123",
			"format":     "png",
			"width":      800,
			"height":     600,
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls, &fields
}

func newTestUploader(t *testing.T, endpoint string, q quota.Store) *Uploader {
	t.Helper()
	u, err := New(Config{
		Endpoint: endpoint,
		Preset:   "noorbazaar_unsigned",
		Quota:    q,
	})
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func TestUpload_InvalidTypeRejectedBeforeNetwork(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	u := newTestUploader(t, server.URL, nil)

	_, err := u.Upload(context.Background(), File{
		Name:        "script.sh",
		ContentType: "application/x-sh",
		Data:        []byte("#!/bin/sh"),
	}, Options{Category: CategoryImage})

	if !IsKind(err, KindInvalidType) {
		t.Fatalf("expected InvalidType, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network call, got %d", calls.Load())
	}
}

func TestUpload_TooLargeRejectedBeforeNetwork(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	u, err := New(Config{
		Endpoint: server.URL,
		Preset:   "noorbazaar_unsigned",
		Limits: map[Category]Limits{
			CategoryImage: {AllowedTypes: []string{"image/png"}, MaxBytes: 10},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = u.Upload(context.Background(), File{
		Name:        "big.png",
		ContentType: "image/png",
		Data:        make([]byte, 11),
	}, Options{Category: CategoryImage})

	if !IsKind(err, KindTooLarge) {
		t.Fatalf("expected TooLarge, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network call, got %d", calls.Load())
	}
}

func TestUpload_BadDimensionsRejectedBeforeNetwork(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	u := newTestUploader(t, server.URL, nil)

	_, err := u.Upload(context.Background(), File{
		Name:        "tiny.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 10, 10),
	}, Options{
		Category:   CategoryImage,
		Dimensions: &DimensionBox{MinWidth: 100, MinHeight: 100},
	})

	if !IsKind(err, KindBadDimensions) {
		t.Fatalf("expected BadDimensions, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network call, got %d", calls.Load())
	}
}

func TestUpload_HappyPath(t *testing.T) {
	server, calls, fields := newStorageServer(t)
	q := &stubQuota{usage: quota.Usage{Date: quota.Day(time.Now()), Count: 10}}
	u := newTestUploader(t, server.URL, q)

	var progress []int
	result, err := u.Upload(context.Background(), File{
		Name:        "suit.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 400, 300),
	}, Options{
		Category:   CategoryImage,
		Folder:     "products",
		Tags:       []string{"lawn", "featured"},
		UserID:     "user-1",
		Dimensions: &DimensionBox{MinWidth: 100, MinHeight: 100, MaxWidth: 2000, MaxHeight: 2000},
		OnProgress: func(p int) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	if calls.Load() != 1 {
		t.Errorf("expected exactly one POST, got %d", calls.Load())
	}
	if result.URL != "https://media.example/noorbazaar/abc123.png" {
		t.Errorf("unexpected URL: %q", result.URL)
	}
	if result.PublicID != "noorbazaar/abc123" || result.Format != "png" {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.Width != 800 || result.Height != 600 {
		t.Errorf("unexpected dimensions: %+v", result)
	}

	if (*fields)["upload_preset"] != "noorbazaar_unsigned" {
		t.Errorf("preset not forwarded: %v", *fields)
	}
	if (*fields)["folder"] != "products" {
		t.Errorf("folder not forwarded: %v", *fields)
	}
	if (*fields)["tags"] != "lawn,featured" {
		t.Errorf("tags not forwarded: %v", *fields)
	}

	if len(progress) == 0 {
		t.Fatal("expected progress reports")
	}
	if progress[0] != 0 {
		t.Errorf("progress must start at 0, got %d", progress[0])
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("progress must end at 100, got %d", progress[len(progress)-1])
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress regressed: %v", progress)
		}
	}

	if q.recorded.Load() != 1 {
		t.Errorf("expected one quota record, got %d", q.recorded.Load())
	}
}

func TestUpload_QuotaExceeded(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	q := &stubQuota{usage: quota.Usage{Date: quota.Day(time.Now()), Count: DefaultDailyCeiling}}
	u := newTestUploader(t, server.URL, q)

	_, err := u.Upload(context.Background(), File{
		Name:        "suit.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 100, 100),
	}, Options{Category: CategoryImage, UserID: "user-1"})

	if !IsKind(err, KindQuotaExceeded) {
		t.Fatalf("expected QuotaExceeded, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network call, got %d", calls.Load())
	}
}

func TestUpload_StaleQuotaDateDoesNotBlock(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	// Ceiling reached yesterday: today's count is zero.
	q := &stubQuota{usage: quota.Usage{Date: "2020-01-01", Count: DefaultDailyCeiling}}
	u := newTestUploader(t, server.URL, q)

	if _, err := u.Upload(context.Background(), File{
		Name:        "suit.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 100, 100),
	}, Options{Category: CategoryImage, UserID: "user-1"}); err != nil {
		t.Fatalf("upload should proceed after date rollover: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one POST, got %d", calls.Load())
	}
}

func TestUpload_QuotaLookupFailureFailsOpen(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	q := &stubQuota{usageErr: errors.New("profile store unreachable")}
	u := newTestUploader(t, server.URL, q)

	result, err := u.Upload(context.Background(), File{
		Name:        "suit.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 100, 100),
	}, Options{Category: CategoryImage, UserID: "user-1"})

	if err != nil {
		t.Fatalf("fail-open policy: upload must proceed, got %v", err)
	}
	if result.URL == "" {
		t.Error("expected a URL from the fail-open upload")
	}
	if calls.Load() != 1 {
		t.Errorf("expected one POST, got %d", calls.Load())
	}
}

func TestUpload_RemoteRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid preset", http.StatusBadRequest)
	}))
	defer server.Close()

	u := newTestUploader(t, server.URL, nil)
	_, err := u.Upload(context.Background(), File{
		Name:        "suit.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 100, 100),
	}, Options{Category: CategoryImage})

	if !IsKind(err, KindRemoteRejected) {
		t.Fatalf("expected RemoteRejected, got %v", err)
	}
}

func TestUpload_TransportError(t *testing.T) {
	// Server that is already closed produces a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	u := newTestUploader(t, server.URL, nil)
	_, err := u.Upload(context.Background(), File{
		Name:        "suit.png",
		ContentType: "image/png",
		Data:        pngBytes(t, 100, 100),
	}, Options{Category: CategoryImage})

	if !IsKind(err, KindTransport) {
		t.Fatalf("expected Transport, got %v", err)
	}
}

func TestUpload_UnknownCategory(t *testing.T) {
	server, calls, _ := newStorageServer(t)
	u := newTestUploader(t, server.URL, nil)

	_, err := u.Upload(context.Background(), File{
		Name:        "x",
		ContentType: "application/octet-stream",
		Data:        []byte{1},
	}, Options{Category: Category("archive")})

	if !IsKind(err, KindInvalidType) {
		t.Fatalf("expected InvalidType for unknown category, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network call, got %d", calls.Load())
	}
}
