// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

const (
	byteOrderMark = "\ufeff"
	sampleSize    = 4096
)

var delimiters = []rune{',', ';', '\t', '|'}

// table is a CSV input read as header and records keyed by column name.
type table struct {
	header []string
	rows   []record
}

// record is a data row. err is set for lines that are not valid CSV.
type record struct {
	line   int
	values map[string]string
	err    error
}

func (r record) get(column string) string {
	return strings.TrimSpace(r.values[column])
}

func (r record) empty() bool {
	for _, value := range r.values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

// readTable reads r detecting its delimiter and checks that every column in required
// is present in the header. Malformed data lines become records carrying a *ParseError
// and reading goes on with the next line.
func readTable(r io.Reader, required []string) (*table, error) {
	buffered := bufio.NewReaderSize(r, sampleSize)
	sample, err := buffered.Peek(sampleSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	reader := csv.NewReader(buffered)
	reader.Comma = detectDelimiter(string(sample))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, err
	}

	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], byteOrderMark))
	}

	missing := make([]string, 0)
	for _, column := range required {
		if !slices.Contains(header, column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	t := &table{header: header}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			t.rows = append(t.rows, record{line: csvErr.StartLine, err: &ParseError{Row: csvErr.StartLine, err: csvErr.Err}})
			continue
		}
		if err != nil {
			return nil, err
		}
		line, _ := reader.FieldPos(0)

		values := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(fields) {
				values[column] = fields[i]
			}
		}
		t.rows = append(t.rows, record{line: line, values: values})
	}

	return t, nil
}

// detectDelimiter picks the candidate delimiter found most often in the first line
// of sample, preferring a comma.
func detectDelimiter(sample string) rune {
	sample = strings.TrimPrefix(sample, byteOrderMark)
	if line, _, found := strings.Cut(sample, "\n"); found {
		sample = line
	}

	best, bestCount := delimiters[0], 0
	for _, delimiter := range delimiters {
		if count := strings.Count(sample, string(delimiter)); count > bestCount {
			best, bestCount = delimiter, count
		}
	}
	return best
}
