// Package roster is the spreadsheet-ingestion boundary: it turns an
// exported CSV sheet into validated characters. The game core never sees
// raw spreadsheet text.
//
// Column convention: a column headed "image" (case-insensitive) is the
// required image locator; columns headed "#name" are filterable tag columns
// whose cells hold comma-separated values; every other column is a
// display-only prop.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"quizmaster/internal/character"
)

const imageColumn = "image"

// TagPrefix marks a header as a tag column.
const TagPrefix = "#"

// Load reads a roster CSV from a file.
func Load(path string) ([]character.Character, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a roster CSV from r. Rows missing an image locator are
// rejected with their row number; fully empty rows are skipped.
func Parse(r io.Reader) ([]character.Character, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}

	imageIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), imageColumn) {
			imageIdx = i
		}
	}
	if imageIdx < 0 {
		return nil, fmt.Errorf("roster has no %q column", imageColumn)
	}

	var pool []character.Character
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster row %d: %w", row, err)
		}
		if isEmpty(record) {
			continue
		}

		c := character.Character{
			Props: map[string]string{},
			Tags:  map[string][]string{},
		}
		for i, col := range header {
			if i >= len(record) {
				break
			}
			name := strings.TrimSpace(col)
			cell := strings.TrimSpace(record[i])

			switch {
			case i == imageIdx:
				c.ImageRef = cell
			case strings.HasPrefix(name, TagPrefix):
				key := strings.TrimSpace(strings.TrimPrefix(name, TagPrefix))
				if key == "" || cell == "" {
					continue
				}
				c.Tags[key] = splitValues(cell)
			case name != "" && cell != "":
				c.Props[name] = cell
			}
		}

		if c.ImageRef == "" {
			return nil, fmt.Errorf("roster row %d has no image locator", row)
		}
		pool = append(pool, c)
	}

	return pool, nil
}

func splitValues(cell string) []string {
	var values []string
	for _, part := range strings.Split(cell, ",") {
		if v := strings.TrimSpace(part); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func isEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
