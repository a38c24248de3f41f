// Package io provides the data sources and sinks the preprocessing pipeline
// reads chunks from and appends results to.
//
// The primary source is CSV, read through Apache Arrow's csv reader so the
// file is consumed as bounded columnar batches: peak memory stays O(chunk
// size) no matter how large the crawled dataset grows. Sinks are append-only;
// a destination gains a header exactly once, when the file is first created,
// so repeated pipeline runs extend the same files.
package io

import (
	"github.com/moviedex/preproc/internal/frame"
)

// DefaultChunkSize is the default number of rows per chunk.
const DefaultChunkSize = 1000

// ChunkSource yields consecutive bounded chunks of rows. Next returns io.EOF
// once the source is exhausted.
type ChunkSource interface {
	// Next reads and returns the next chunk.
	Next() (*frame.Frame, error)
	// Close releases the underlying resources.
	Close() error
}

// RowSink is an append-only destination for processed rows.
type RowSink interface {
	// Append writes all rows of the frame to the destination.
	Append(f *frame.Frame) error
	// Close flushes and releases the underlying resources.
	Close() error
}
