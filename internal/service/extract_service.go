package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ielts_edu_backend/internal/config"
	"ielts_edu_backend/internal/util"
	"ielts_edu_backend/pkg/logger"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// ExtractService 把上传文件统一抽成纯文本：PDF 本地解析，图片走外部
// OCR 服务。多文件串行处理，汇入同一个文本缓冲。
type ExtractService struct {
	ocrURL string
	client *http.Client
}

func NewExtractService(cfg config.OCRConfig) *ExtractService {
	return &ExtractService{
		ocrURL: cfg.Endpoint,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// ExtractedFile 单个文件的抽取结果；Err 非空表示该文件失败，
// 但不阻断其余文件
type ExtractedFile struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
	Err      string `json:"error,omitempty"`
}

// ExtractFiles 逐个处理上传文件，失败的文件记录内联错误，
// 已抽出的文本照常累积返回
func (s *ExtractService) ExtractFiles(ctx context.Context, files []*multipart.FileHeader) (string, []ExtractedFile) {
	var buf strings.Builder
	results := make([]ExtractedFile, 0, len(files))

	for _, fh := range files {
		text, err := s.extractOne(ctx, fh)
		result := ExtractedFile{Filename: fh.Filename, Text: text}
		if err != nil {
			result.Err = err.Error()
			logger.Log.Warn("file extraction failed",
				zap.String("filename", fh.Filename), zap.Error(err))
		} else {
			if buf.Len() > 0 {
				buf.WriteString("\n\n")
			}
			buf.WriteString(text)
		}
		results = append(results, result)
	}
	return buf.String(), results
}

func (s *ExtractService) extractOne(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	defer f.Close()

	mimeType, err := util.ValidateMimeType(f, []string{util.MimePDF, util.MimeImage, "text/plain"})
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}

	switch {
	case mimeType == util.MimePDF:
		return s.extractPDF(f, fh.Size)
	case util.IsImage(mimeType):
		return s.extractOCR(ctx, f, fh.Filename)
	default:
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
		}
		return string(data), nil
	}
}

func (s *ExtractService) extractPDF(r io.ReaderAt, size int64) (string, error) {
	doc, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", util.ErrExtraction, err)
	}

	var buf strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", util.ErrExtraction, i, err)
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}

// extractOCR 调外部 OCR 端点：multipart 上传，响应 { "text": "..." }
func (s *ExtractService) extractOCR(ctx context.Context, f io.Reader, filename string) (string, error) {
	if s.ocrURL == "" {
		return "", fmt.Errorf("%w: OCR endpoint not configured", util.ErrExtraction)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.ocrURL, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: OCR status %d: %s", util.ErrExtraction, resp.StatusCode, string(raw))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decode OCR response: %v", util.ErrExtraction, err)
	}
	return result.Text, nil
}
