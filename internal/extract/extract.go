// Package extract pulls plain text out of uploaded files so they can be
// submitted through the same processing pipeline as raw text.
package extract

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// maxPDFPages bounds extraction; long documents get truncated later in the
// pipeline anyway, so reading every page is wasted work.
const maxPDFPages = 5

// ErrUnsupportedType is returned for file extensions the extractor
// does not handle
var ErrUnsupportedType = fmt.Errorf("unsupported file type")

// SupportedExtensions lists the upload types the extractor accepts
var SupportedExtensions = []string{".txt", ".md", ".pdf"}

// Supported reports whether the filename's extension can be extracted
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Text extracts plain text from an uploaded file body based on its
// extension. Plain text and Markdown pass through; PDFs are read page by
// page up to the page cap.
func Text(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("file %s is not valid UTF-8 text", filename)
		}
		return string(data), nil

	case ".pdf":
		return pdfText(data)

	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	totalPages := reader.NumPage()
	if totalPages > maxPDFPages {
		totalPages = maxPDFPages
	}

	var sb strings.Builder
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", pageIndex, err)
		}

		sb.WriteString(text)
		sb.WriteString("\n")
	}

	extracted := strings.TrimSpace(sb.String())
	if extracted == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}

	return extracted, nil
}
