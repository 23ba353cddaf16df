package synonym

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ReadDictionaryCSV reads a two-column "id,synonym" dictionary, following
// the same LazyQuotes/TrimLeadingSpace CSV conventions as the report
// loader: one row per synonym, synonyms for the same ID repeated across
// rows, first row is the header. Multiple synonyms for the same ID
// anywhere in the file are grouped into one Entry, in first-seen order.
func ReadDictionaryCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil { // header
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read dictionary header: %w", err)
	}

	order := make([]string, 0)
	byID := make(map[string][]string)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dictionary row: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		id := strings.TrimSpace(row[0])
		syn := strings.TrimSpace(row[1])
		if id == "" || syn == "" {
			continue
		}
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = append(byID[id], syn)
	}

	out := make([]Entry, 0, len(order))
	for _, id := range order {
		out = append(out, Entry{ID: id, Synonyms: byID[id]})
	}
	return out, nil
}
