package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ielts_edu_backend/internal/config"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func buildUpload(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(32 << 20)
	if err != nil {
		t.Fatal(err)
	}
	return form.File["files"]
}

func ocrServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.File["file"]; !ok {
			t.Error("missing file part")
		}
		w.Write([]byte(`{"text":"` + text + `"}`))
	}))
}

func TestExtractPlainText(t *testing.T) {
	svc := NewExtractService(config.OCRConfig{TimeoutSeconds: 5})

	files := buildUpload(t, map[string][]byte{
		"paper.txt": []byte("Section 1\nQuestion 1. What is the answer?"),
	})

	text, results := svc.ExtractFiles(context.Background(), files)
	if len(results) != 1 || results[0].Err != "" {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(text, "Question 1") {
		t.Errorf("text = %q", text)
	}
}

func TestExtractImageViaOCR(t *testing.T) {
	srv := ocrServer(t, "Section 1 recognized from scan")
	defer srv.Close()

	svc := NewExtractService(config.OCRConfig{Endpoint: srv.URL, TimeoutSeconds: 5})

	files := buildUpload(t, map[string][]byte{"scan.png": pngMagic})

	text, results := svc.ExtractFiles(context.Background(), files)
	if results[0].Err != "" {
		t.Fatalf("ocr failed: %s", results[0].Err)
	}
	if text != "Section 1 recognized from scan" {
		t.Errorf("text = %q", text)
	}
}

// 单个文件失败不阻断，错误内联返回，其余文本照常累积
func TestExtractAccumulatesPastFailures(t *testing.T) {
	svc := NewExtractService(config.OCRConfig{TimeoutSeconds: 5})

	files := buildUpload(t, map[string][]byte{
		"good.txt": []byte("readable text content here"),
		"bad.bin":  {0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	})

	text, results := svc.ExtractFiles(context.Background(), files)
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}

	var failed, ok int
	for _, r := range results {
		if r.Err != "" {
			failed++
		} else {
			ok++
		}
	}
	if failed != 1 || ok != 1 {
		t.Fatalf("failed = %d ok = %d: %+v", failed, ok, results)
	}
	if !strings.Contains(text, "readable text content") {
		t.Errorf("successful text dropped: %q", text)
	}
}

func TestExtractImageWithoutOCREndpoint(t *testing.T) {
	svc := NewExtractService(config.OCRConfig{TimeoutSeconds: 5})

	files := buildUpload(t, map[string][]byte{"scan.png": pngMagic})

	_, results := svc.ExtractFiles(context.Background(), files)
	if results[0].Err == "" {
		t.Fatal("missing OCR endpoint not reported")
	}
	if !strings.Contains(results[0].Err, "OCR endpoint not configured") {
		t.Errorf("err = %q", results[0].Err)
	}
}

func TestExtractOCRUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := NewExtractService(config.OCRConfig{Endpoint: srv.URL, TimeoutSeconds: 5})

	files := buildUpload(t, map[string][]byte{"scan.png": pngMagic})

	_, results := svc.ExtractFiles(context.Background(), files)
	if results[0].Err == "" || !strings.Contains(results[0].Err, "500") {
		t.Errorf("err = %q", results[0].Err)
	}
}
