package io

import (
	stdcsv "encoding/csv"
	stdio "io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviedex/preproc/internal/frame"
)

func writeCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := stdcsv.NewWriter(f)
	require.NoError(t, w.WriteAll(records))
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, f.Close())
}

func readBack(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := stdcsv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVSourceChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	writeCSV(t, path, [][]string{
		{"title", "rating"},
		{"Alpha", "8.5"},
		{"Beta", "7.0"},
		{"Gamma", "N/A"},
		{"Delta", "6.1"},
		{"Epsilon", "5.0"},
	})

	src, err := NewCSVSource(path, 2, memory.NewGoAllocator())
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"title", "rating"}, src.Columns())

	var lens []int
	var titles []string
	for {
		chunk, err := src.Next()
		if err == stdio.EOF {
			break
		}
		require.NoError(t, err)
		lens = append(lens, chunk.Len())
		for r := 0; r < chunk.Len(); r++ {
			titles = append(titles, chunk.Cell("title", r).Text())
		}
	}
	assert.Equal(t, []int{2, 2, 1}, lens)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"}, titles)

	// EOF is sticky.
	_, err = src.Next()
	assert.Equal(t, stdio.EOF, err)
}

func TestCSVSourceKeepsFlagTokensLiteral(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	writeCSV(t, path, [][]string{
		{"rating"},
		{"N/A"},
	})

	src, err := NewCSVSource(path, 10, nil)
	require.NoError(t, err)
	defer src.Close()

	chunk, err := src.Next()
	require.NoError(t, err)
	// Sentinel recognition belongs to the normalizer; ingestion must not
	// consume the token.
	assert.Equal(t, "N/A", chunk.Cell("rating", 0).Text())
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), 10, nil)
	assert.Error(t, err)
}

func TestCSVSourceEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	_, err := NewCSVSource(path, 10, nil)
	assert.Error(t, err)
}

func testFrame(t *testing.T, cols []string, rows [][]frame.Cell) *frame.Frame {
	t.Helper()
	f := frame.NewWithColumns(cols)
	for _, row := range rows {
		require.NoError(t, f.AppendRow(row))
	}
	return f
}

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	logger := slog.New(slog.DiscardHandler)

	sink, err := NewCSVSink(path, logger)
	require.NoError(t, err)
	require.NoError(t, sink.Append(testFrame(t, []string{"a", "b"}, [][]frame.Cell{
		{frame.String("x"), frame.Number(1)},
	})))
	require.NoError(t, sink.Append(testFrame(t, []string{"a", "b"}, [][]frame.Cell{
		{frame.String("y"), frame.Number(2)},
	})))
	require.NoError(t, sink.Close())

	// A second sink on the same file appends without a second header.
	sink, err = NewCSVSink(path, logger)
	require.NoError(t, err)
	require.NoError(t, sink.Append(testFrame(t, []string{"a", "b"}, [][]frame.Cell{
		{frame.String("z"), frame.Number(3)},
	})))
	require.NoError(t, sink.Close())

	records := readBack(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"a", "b"}, records[0])
	assert.Equal(t, []string{"x", "1"}, records[1])
	assert.Equal(t, []string{"z", "3"}, records[3])
}

func TestCSVSinkAlignsLaterFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink, err := NewCSVSink(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	require.NoError(t, sink.Append(testFrame(t, []string{"a", "b"}, [][]frame.Cell{
		{frame.String("x"), frame.String("y")},
	})))
	// Absent column written empty, extra column dropped.
	require.NoError(t, sink.Append(testFrame(t, []string{"b", "c"}, [][]frame.Cell{
		{frame.String("q"), frame.String("dropped")},
	})))
	require.NoError(t, sink.Close())

	records := readBack(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"", "q"}, records[2])
}

func TestCSVSinkMissingRendersEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	sink, err := NewCSVSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Append(testFrame(t, []string{"a"}, [][]frame.Cell{
		{frame.Missing()},
	})))
	require.NoError(t, sink.Close())

	records := readBack(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, []string{""}, records[1])
}
