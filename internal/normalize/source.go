package normalize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pvsignal/engine/internal/models"
)

// ReportSource supplies raw case reports to Normalize. FAERS-style
// quarterly archives are split across report, drug, and reaction tables
// joined on report_id; a real source might stream from the archive
// download external collaborator instead of a fixed file set.
type ReportSource interface {
	Load() ([]models.ReportRecord, int, error) // records, rows skipped while reading
}

// CSVReportSource reads the three-table FAERS layout from local CSV files
// using encoding/csv with LazyQuotes and TrimLeadingSpace; a header row is
// required in each file.
type CSVReportSource struct {
	ReportsPath   string // report_id,case_id,version,received_at,quarter
	DrugsPath     string // report_id,surface,role
	ReactionsPath string // report_id,surface
}

func (s CSVReportSource) Load() ([]models.ReportRecord, int, error) {
	reports, skipped1, err := s.loadReports()
	if err != nil {
		return nil, 0, err
	}
	skipped2, err := s.loadDrugs(reports)
	if err != nil {
		return nil, 0, err
	}
	skipped3, err := s.loadReactions(reports)
	if err != nil {
		return nil, 0, err
	}

	out := make([]models.ReportRecord, 0, len(reports))
	for _, r := range reports {
		out = append(out, *r)
	}
	return out, skipped1 + skipped2 + skipped3, nil
}

func (s CSVReportSource) loadReports() (map[string]*models.ReportRecord, int, error) {
	rows, err := readCSV(s.ReportsPath)
	if err != nil {
		return nil, 0, err
	}
	out := make(map[string]*models.ReportRecord)
	skipped := 0
	for _, row := range rows {
		if len(row) < 5 {
			skipped++
			continue
		}
		version, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			skipped++
			continue
		}
		r := &models.ReportRecord{
			ReportID:   strings.TrimSpace(row[0]),
			CaseID:     strings.TrimSpace(row[1]),
			Version:    version,
			ReceivedAt: strings.TrimSpace(row[3]),
			Quarter:    strings.TrimSpace(row[4]),
		}
		if r.ReportID == "" || r.CaseID == "" || r.Quarter == "" {
			skipped++
			continue
		}
		out[r.ReportID] = r
	}
	return out, skipped, nil
}

func (s CSVReportSource) loadDrugs(reports map[string]*models.ReportRecord) (int, error) {
	rows, err := readCSV(s.DrugsPath)
	if err != nil {
		return 0, err
	}
	skipped := 0
	for _, row := range rows {
		if len(row) < 3 {
			skipped++
			continue
		}
		r, ok := reports[strings.TrimSpace(row[0])]
		if !ok {
			skipped++
			continue
		}
		r.Drugs = append(r.Drugs, models.DrugMention{
			Surface: strings.TrimSpace(row[1]),
			Role:    models.DrugRole(strings.TrimSpace(row[2])),
		})
	}
	return skipped, nil
}

func (s CSVReportSource) loadReactions(reports map[string]*models.ReportRecord) (int, error) {
	rows, err := readCSV(s.ReactionsPath)
	if err != nil {
		return 0, err
	}
	skipped := 0
	for _, row := range rows {
		if len(row) < 2 {
			skipped++
			continue
		}
		r, ok := reports[strings.TrimSpace(row[0])]
		if !ok {
			skipped++
			continue
		}
		r.Reactions = append(r.Reactions, strings.TrimSpace(row[1]))
	}
	return skipped, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil { // header
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
