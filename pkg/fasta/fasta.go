// Package fasta reads nucleotide records from FASTA files.
//
// Only what evoprobe needs is supported: plain or gzip-compressed input,
// "-" for stdin, and headers starting with '>'. Symbols are passed through
// untouched; no alphabet validation or case folding is done.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("fasta file not found")
	// ErrNoRecords is returned when the input holds no FASTA record.
	ErrNoRecords = errors.New("no fasta records")
	// ErrEmptySequence is returned by callers that need symbols when a
	// record has a header but no sequence lines.
	ErrEmptySequence = errors.New("fasta record has no sequence")
)

// Record is a single FASTA entry.
type Record struct {
	// ID is the first whitespace-delimited token of the header.
	ID string
	// Description is the rest of the header line, if any.
	Description string
	Seq         string
}

// Len returns the number of symbols in the record.
func (r Record) Len() int { return len(r.Seq) }

// ReadFirst returns the first record in the file at path. Records after the
// first one are never read.
func ReadFirst(path string) (*Record, error) {
	rc, err := open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	s := newScanner(rc)
	rec, err := s.next()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRecords)
	}
	return rec, nil
}

// Parse returns every record in r, in file order.
func Parse(r io.Reader) ([]Record, error) {
	s := newScanner(r)
	var records []Record
	for {
		rec, err := s.next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, *rec)
	}
}

// scanner walks FASTA records one at a time. pending holds a header line
// read while finishing the previous record.
type scanner struct {
	sc       *bufio.Scanner
	pending  string
	havePend bool
}

func newScanner(r io.Reader) *scanner {
	sc := bufio.NewScanner(r)
	// Chromosome-scale records can be written on a single line.
	sc.Buffer(make([]byte, 0, 64*1024), 1<<30)
	return &scanner{sc: sc}
}

func (s *scanner) next() (*Record, error) {
	var header string
	if s.havePend {
		header, s.havePend = s.pending, false
	} else {
		for s.sc.Scan() {
			line := strings.TrimRight(s.sc.Text(), "\r")
			if strings.HasPrefix(line, ">") {
				header = line
				break
			}
		}
		if header == "" {
			return nil, s.sc.Err()
		}
	}

	rec := &Record{}
	id, desc, _ := strings.Cut(strings.TrimSpace(header[1:]), " ")
	rec.ID = id
	rec.Description = strings.TrimSpace(desc)

	var seq strings.Builder
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if strings.HasPrefix(line, ">") {
			s.pending, s.havePend = line, true
			break
		}
		seq.WriteString(line)
	}
	if err := s.sc.Err(); err != nil {
		return nil, err
	}
	rec.Seq = seq.String()
	return rec, nil
}

// open returns a reader for path, transparently decompressing gzip input.
func open(path string) (io.ReadCloser, error) {
	var src io.ReadCloser
	if path == "-" {
		src = io.NopCloser(os.Stdin)
	} else {
		fh, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			return nil, err
		}
		src = fh
	}

	br := bufio.NewReader(src)
	if magic, _ := br.Peek(2); bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gz, Closer: src}, nil
	}
	return struct {
		io.Reader
		io.Closer
	}{Reader: br, Closer: src}, nil
}
