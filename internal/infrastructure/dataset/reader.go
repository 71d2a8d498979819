package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abelyaev/cv-match/internal/core/domain"
)

// Dataset column names. Optional columns missing from the file read as
// empty strings; job_id and title must exist.
const (
	colJobID       = "job_id"
	colTitle       = "title"
	colDescription = "description"
	colSkills      = "skills_desc"
	colLocation    = "location"
	colCompany     = "company_name"
	colExperience  = "formatted_experience_level"
	colWorkType    = "work_type"
)

// Reader streams postings out of a CSV or XLSX dataset file.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadPostings(ctx context.Context, path string, fn func(domain.Posting) error) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readCSV(ctx, path, fn)
	case ".xlsx":
		return readXLSX(ctx, path, fn)
	default:
		return domain.WrapError(domain.ErrInvalidInput, "open dataset", fmt.Errorf("unsupported extension %q", ext))
	}
}

func readCSV(ctx context.Context, path string, fn func(domain.Posting) error) error {
	f, err := os.Open(path)
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "open dataset", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	// Scraped datasets carry ragged rows and stray quotes.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "read dataset header", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read dataset row: %w", err)
		}
		if err := fn(cols.posting(row)); err != nil {
			return err
		}
	}
}

func readXLSX(ctx context.Context, path string, fn func(domain.Posting) error) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "open dataset", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "read dataset", errors.New("workbook has no sheets"))
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return fmt.Errorf("read dataset rows: %w", err)
	}
	defer rows.Close()

	var cols columnMap
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("read dataset row: %w", err)
		}
		if cols == nil {
			if cols, err = mapColumns(row); err != nil {
				return err
			}
			continue
		}
		if err := fn(cols.posting(row)); err != nil {
			return err
		}
	}
	return rows.Error()
}

type columnMap map[string]int

func mapColumns(header []string) (columnMap, error) {
	cols := make(columnMap, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\uFEFF")
		}
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colJobID, colTitle} {
		if _, ok := cols[required]; !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read dataset header", fmt.Errorf("missing %q column", required))
		}
	}
	return cols, nil
}

func (m columnMap) value(row []string, name string) string {
	i, ok := m[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (m columnMap) posting(row []string) domain.Posting {
	return domain.Posting{
		ID:          m.value(row, colJobID),
		Title:       m.value(row, colTitle),
		Description: stripHTML(m.value(row, colDescription)),
		Skills:      m.value(row, colSkills),
		Location:    m.value(row, colLocation),
		Company:     m.value(row, colCompany),
		Experience:  m.value(row, colExperience),
		WorkType:    m.value(row, colWorkType),
	}
}
