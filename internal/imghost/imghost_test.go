package imghost

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"framegrab/internal/config"
)

type fakeDoer struct {
	mu       sync.Mutex
	requests []*http.Request
	respond  func(req *http.Request) *http.Response
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.respond(req), nil
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func uploadConfig() config.Upload {
	cfg := config.Default().Upload
	cfg.PTPImgAPIKey = "test-ptpimg-key"
	cfg.ImgBBAPIKey = "test-imgbb-key"
	return cfg
}

func seedImages(t *testing.T, count int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		path := filepath.Join(dir, "shot-"+string(rune('0'+i))+".png")
		if err := os.WriteFile(path, []byte("png-bytes"), 0o644); err != nil {
			t.Fatalf("seed image: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestUploadPTPImgBatch(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(200, `[{"code":"abc1","ext":"png"},{"code":"def2","ext":"png"}]`)
	}}
	client := NewClient(uploadConfig(), doer, nil)

	records, err := client.Upload(context.Background(), "ptpimg", seedImages(t, 2))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[0].RawURL != "https://ptpimg.me/abc1.png" {
		t.Fatalf("unexpected raw URL %q", records[0].RawURL)
	}
	if len(doer.requests) != 1 {
		t.Fatalf("ptpimg must upload the batch in one request, got %d", len(doer.requests))
	}
	if got := doer.requests[0].URL.String(); got != ptpimgUploadURL {
		t.Fatalf("unexpected URL %q", got)
	}
}

func TestUploadPTPImgRequiresKey(t *testing.T) {
	cfg := uploadConfig()
	cfg.PTPImgAPIKey = ""
	client := NewClient(cfg, &fakeDoer{respond: func(*http.Request) *http.Response { return jsonResponse(200, "[]") }}, nil)
	if _, err := client.Upload(context.Background(), "ptpimg", seedImages(t, 1)); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestUploadPixhostRewritesThumbURL(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(200, `{"th_url":"https://t77.pixhost.to/thumbs/1/shot.png","show_url":"https://pixhost.to/show/1/shot.png"}`)
	}}
	client := NewClient(uploadConfig(), doer, nil)

	records, err := client.Upload(context.Background(), "pixhost", seedImages(t, 1))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %+v", records)
	}
	want := "https://img77.pixhost.to/images/1/shot.png"
	if records[0].RawURL != want {
		t.Fatalf("raw URL %q, want %q", records[0].RawURL, want)
	}
	if records[0].WebURL != "https://pixhost.to/show/1/shot.png" {
		t.Fatalf("web URL %q", records[0].WebURL)
	}
}

func TestUploadImgBB(t *testing.T) {
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		return jsonResponse(200, `{"success":true,"data":{"url":"https://i.ibb.co/x/shot.png","display_url":"https://i.ibb.co/x/shot.png","url_viewer":"https://ibb.co/x"}}`)
	}}
	client := NewClient(uploadConfig(), doer, nil)

	records, err := client.Upload(context.Background(), "imgbb", seedImages(t, 1))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(records) != 1 || records[0].RawURL != "https://i.ibb.co/x/shot.png" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestUploadShortResultOnPerFileFailure(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	doer := &fakeDoer{respond: func(*http.Request) *http.Response {
		mu.Lock()
		calls++
		failing := calls == 1
		mu.Unlock()
		if failing {
			return jsonResponse(500, `{}`)
		}
		return jsonResponse(200, `{"th_url":"https://t1.pixhost.to/thumbs/1/ok.png","show_url":"https://pixhost.to/show/1/ok.png"}`)
	}}
	cfg := uploadConfig()
	cfg.Parallel = 1
	client := NewClient(cfg, doer, nil)

	records, err := client.Upload(context.Background(), "pixhost", seedImages(t, 2))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected short result with 1 record, got %+v", records)
	}
}

func TestUploadUnknownHostIsEmptyNotError(t *testing.T) {
	client := NewClient(uploadConfig(), &fakeDoer{respond: func(*http.Request) *http.Response { return jsonResponse(200, "{}") }}, nil)
	records, err := client.Upload(context.Background(), "mystery", seedImages(t, 1))
	if err != nil {
		t.Fatalf("unknown host must not error, got %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty result, got %+v", records)
	}
}
