package roster

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	appsupplier "github.com/satguard/backend/internal/application/supplier"
)

// Parse errors surfaced to callers uploading a roster file.
var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	ErrMissingHeader   = errors.New("missing header row")
	ErrMissingRFC      = errors.New("missing required column: rfc")
)

// Column headers recognized in roster files. Spanish aliases cover the
// exports most tenants upload.
var (
	rfcHeaders   = []string{"rfc"}
	aliasHeaders = []string{"alias", "nombre", "razon_social"}
	startHeaders = []string{"start_date", "fecha_inicio"}
	endHeaders   = []string{"end_date", "fecha_fin"}
)

// Accepted date layouts, tried in order.
var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// RowError reports a roster row that could not be parsed
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// maxRowErrors caps how many row errors are collected before bailing
const maxRowErrors = 100

// Parse reads a supplier roster CSV into import rows. The file must be
// UTF-8; a leading BOM is tolerated. Only the rfc column is required.
// Rows with an empty RFC or an unparseable date are collected as row
// errors rather than aborting the whole file.
func Parse(r io.Reader) ([]appsupplier.ImportRow, []RowError, error) {
	br := bufio.NewReader(r)

	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, nil, ErrEmptyFile
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	if err := validateUTF8(br); err != nil {
		return nil, nil, err
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, ErrMissingHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := indexHeaders(header)
	rfcIdx, ok := cols.first(rfcHeaders)
	if !ok {
		return nil, nil, ErrMissingRFC
	}
	aliasIdx, hasAlias := cols.first(aliasHeaders)
	startIdx, hasStart := cols.first(startHeaders)
	endIdx, hasEnd := cols.first(endHeaders)

	var rows []appsupplier.ImportRow
	var rowErrs []RowError
	line := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Message: err.Error()})
			if len(rowErrs) >= maxRowErrors {
				break
			}
			continue
		}
		if isEmptyRecord(record) {
			continue
		}

		rfc := strings.TrimSpace(field(record, rfcIdx))
		if rfc == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Message: "empty rfc"})
			if len(rowErrs) >= maxRowErrors {
				break
			}
			continue
		}

		row := appsupplier.ImportRow{RFC: rfc}
		if hasAlias {
			row.Alias = strings.TrimSpace(field(record, aliasIdx))
		}

		badDate := false
		if hasStart {
			row.StartDate, err = parseDate(field(record, startIdx))
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: "invalid start_date"})
				badDate = true
			}
		}
		if hasEnd && !badDate {
			row.EndDate, err = parseDate(field(record, endIdx))
			if err != nil {
				rowErrs = append(rowErrs, RowError{Line: line, Message: "invalid end_date"})
				badDate = true
			}
		}
		if badDate {
			if len(rowErrs) >= maxRowErrors {
				break
			}
			continue
		}

		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

type headerIndex map[string]int

func indexHeaders(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func (h headerIndex) first(names []string) (int, bool) {
	for _, name := range names {
		if i, ok := h[name]; ok {
			return i, true
		}
	}
	return 0, false
}

func field(record []string, idx int) string {
	if idx < len(record) {
		return record[idx]
	}
	return ""
}

func isEmptyRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parseDate returns nil for an empty field
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}
