package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/abelyaev/cv-match/internal/core/domain"
	"github.com/abelyaev/cv-match/internal/core/ports"
)

// Extractor pulls plain text out of a spooled resume file, dispatching on
// the filename extension. Unsupported extensions yield empty text without
// an error.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, resume *domain.Resume) (string, error) {
	if resume == nil {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(resume.Filename))
	switch ext {
	case ".pdf", ".docx", ".txt", ".md":
	default:
		return "", nil
	}

	reader, err := e.storage.Open(ctx, resume.StorageKey)
	if err != nil {
		return "", fmt.Errorf("open resume file: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read resume file: %w", err)
	}

	switch ext {
	case ".pdf":
		return pdfText(raw)
	case ".docx":
		return docxText(raw)
	default:
		return plainText(raw, resume.Filename)
	}
}

func pdfText(raw []byte) (text string, err error) {
	// The pdf library panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func docxText(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New("docx has no document body")
	}

	r, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open docx body: %w", err)
	}
	defer r.Close()

	return wordMLText(r)
}

// wordMLText walks WordprocessingML keeping text runs, paragraph breaks and
// tab stops.
func wordMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx body: %w", err)
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				b.WriteString("\n")
			case "tab":
				b.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func plainText(raw []byte, filename string) (string, error) {
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("not utf-8 text: %s", filename)
	}
	return strings.TrimSpace(string(raw)), nil
}
