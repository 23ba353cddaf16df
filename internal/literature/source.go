// Package literature provides the literature-abstract capability
// interface Extract depends on, plus a minimal file-backed implementation.
// A real deployment sources abstracts from an external archive download
// collaborator; that collaborator is out of scope here.
package literature

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Abstract is one literature record: a PubMed ID and its text.
type Abstract struct {
	PMID string
	Text string
	Year int
}

// Source lazily iterates abstracts. Implementations load once and hold no
// per-call state beyond the iteration cursor: each Extract run loads its
// corpus exactly once and treats it as read-only for the rest of the run.
type Source interface {
	Next() (Abstract, bool, error)
}

// EmptySource always reports no abstracts, used when no literature corpus
// is configured. Its presence lets Extract treat a missing corpus as a
// normal, not exceptional, input.
type EmptySource struct{}

func (EmptySource) Next() (Abstract, bool, error) { return Abstract{}, false, nil }

// FileSource reads newline-delimited "pmid\tyear\ttext" records from a
// single file, the simplest shape that can stand in for a literature
// archive without pulling in a document-store dependency this module has
// no other use for.
type FileSource struct {
	scanner *bufio.Scanner
	file    *os.File
}

// OpenFileSource opens path for streaming. Callers must call Close when
// done.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open literature source %s: %w", path, err)
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &FileSource{scanner: sc, file: f}, nil
}

func (s *FileSource) Close() error { return s.file.Close() }

func (s *FileSource) Next() (Abstract, bool, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return Abstract{}, false, err
		}
		return Abstract{}, false, nil
	}
	line := s.scanner.Text()
	parts := strings.SplitN(line, "\t", 3)
	if len(parts) != 3 {
		return s.Next() // skip malformed lines rather than fail the whole corpus
	}
	year := 0
	fmt.Sscanf(parts[1], "%d", &year)
	return Abstract{PMID: parts[0], Year: year, Text: parts[2]}, true, nil
}
