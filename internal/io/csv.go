package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/moviedex/preproc/internal/frame"
)

// CSVSource reads a CSV file as consecutive chunks of at most chunkSize rows.
// Every column is read as a nullable string; semantic typing is the
// normalizer's job, not the reader's, so flag tokens like "N/A" survive
// ingestion intact.
type CSVSource struct {
	file   *os.File
	reader *arrowcsv.Reader
	cols   []string
}

// NewCSVSource opens path and prepares chunked reading. The header row is
// sniffed for column names, then the file is handed to an Arrow csv reader
// with an all-string schema and the requested chunk size.
func NewCSVSource(path string, chunkSize int, mem memory.Allocator) (*CSVSource, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	header, err := csv.NewReader(f).Read()
	if err != nil {
		_ = f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header of %s: file is empty", path)
		}
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rewinding %s: %w", path, err)
	}

	fields := make([]arrow.Field, len(header))
	for i, name := range header {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	reader := arrowcsv.NewReader(f, schema,
		arrowcsv.WithAllocator(mem),
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(chunkSize),
	)

	return &CSVSource{file: f, reader: reader, cols: header}, nil
}

// Columns returns the source's column names in file order.
func (s *CSVSource) Columns() []string { return s.cols }

// Next returns the next chunk, or io.EOF when the file is exhausted.
func (s *CSVSource) Next() (*frame.Frame, error) {
	if s.reader.Next() {
		return s.recordToFrame(s.reader.Record()), nil
	}
	if err := s.reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading chunk: %w", err)
	}
	return nil, io.EOF
}

// Close releases the Arrow reader and the underlying file.
func (s *CSVSource) Close() error {
	s.reader.Release()
	return s.file.Close()
}

// recordToFrame copies one Arrow record into a mutable frame. The record's
// buffers are owned by the reader and reclaimed on the following Next call,
// so cells are copied out rather than referenced.
func (s *CSVSource) recordToFrame(rec arrow.Record) *frame.Frame {
	out := frame.New()
	for i, name := range s.cols {
		col := rec.Column(i).(*array.String)
		cells := make([]frame.Cell, col.Len())
		for j := range cells {
			if col.IsNull(j) {
				cells[j] = frame.Missing()
			} else {
				cells[j] = frame.String(col.Value(j))
			}
		}
		_ = out.AddColumn(name, cells)
	}
	return out
}

// CSVSink appends frames to a CSV file. The header row is written only when
// the file did not exist at open time; every later append, in this run or a
// subsequent one, is headerless. The first appended frame fixes the column
// order; later frames are aligned to it, with absent columns written empty
// and extra columns dropped with a warning.
type CSVSink struct {
	file        *os.File
	writer      *csv.Writer
	needHeader  bool
	header      []string
	warnedExtra map[string]bool
	logger      *slog.Logger
}

// NewCSVSink opens (or creates) path for appending.
func NewCSVSink(path string, logger *slog.Logger) (*CSVSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &CSVSink{
		file:        f,
		writer:      csv.NewWriter(f),
		needHeader:  !exists,
		warnedExtra: make(map[string]bool),
		logger:      logger,
	}, nil
}

// Append writes all rows of the frame.
func (s *CSVSink) Append(f *frame.Frame) error {
	if s.header == nil {
		s.header = append([]string(nil), f.Columns()...)
		if s.needHeader {
			if err := s.writer.Write(s.header); err != nil {
				return fmt.Errorf("writing header: %w", err)
			}
			s.needHeader = false
		}
	}
	for _, col := range f.Columns() {
		if !contains(s.header, col) && !s.warnedExtra[col] {
			s.logger.Warn("column absent from output header, dropping", "column", col)
			s.warnedExtra[col] = true
		}
	}

	row := make([]string, len(s.header))
	for r := 0; r < f.Len(); r++ {
		for i, col := range s.header {
			row[i] = f.Cell(col, r).Text()
		}
		if err := s.writer.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", r, err)
		}
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes buffered rows and closes the file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
