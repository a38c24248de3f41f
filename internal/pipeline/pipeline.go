// Package pipeline orchestrates the chunked preprocessing run: raw crawled
// rows in, a "good" stream of complete scaled rows and a "bad" stream of
// imputed and outlier rows out.
//
// Each chunk moves through the stages in a fixed order: duplicate removal,
// parental-guide flattening, field normalization, numeric cleaning, the
// complete/incomplete split, imputation of the incomplete partition, optional
// categorical encoding, outlier quarantine and min-max scaling, then a single
// append to each output. The chunk is also the durability boundary: once
// chunk i is appended, a crash loses nothing before chunk i+1. The pipeline
// does not persist a read offset; resuming is the caller's concern.
package pipeline

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/moviedex/preproc/internal/codec"
	"github.com/moviedex/preproc/internal/config"
	"github.com/moviedex/preproc/internal/errors"
	"github.com/moviedex/preproc/internal/fieldnorm"
	"github.com/moviedex/preproc/internal/frame"
	"github.com/moviedex/preproc/internal/impute"
	pio "github.com/moviedex/preproc/internal/io"
	"github.com/moviedex/preproc/internal/outlier"
)

// Result summarizes one processed chunk.
type Result struct {
	Rows     int // rows after duplicate removal
	Good     int
	Bad      int
	Outliers int
}

// Pipeline processes a dataset chunk by chunk. It is single-threaded: every
// stage runs to completion before the next begins, and the codec state it
// accumulates across chunks is owned exclusively by the running goroutine.
type Pipeline struct {
	cfg        config.Config
	enc        *codec.Codec
	encState   *codec.State
	imputer    *impute.Imputer
	detector   *outlier.Detector
	logger     *slog.Logger
	guideOrder []string // category order fixed by the first chunk
}

// New creates a pipeline for the given configuration.
func New(cfg config.Config, logger *slog.Logger) (*Pipeline, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("configure", err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:      cfg,
		enc:      codec.New(cfg.TopThreshold),
		encState: codec.NewState(),
		imputer:  impute.New(cfg.MaxIterations, logger),
		detector: outlier.New(),
		logger:   logger,
	}, nil
}

// CodecState exposes the accumulated encoding metadata, required to decode
// anything the pipeline encoded.
func (p *Pipeline) CodecState() *codec.State { return p.encState }

// Run reads every chunk from source and appends results to the good and bad
// sinks. Only structural failures stop the run; everything recoverable is
// logged and absorbed.
func (p *Pipeline) Run(source pio.ChunkSource, good, bad pio.RowSink) error {
	offset := 0
	chunkIndex := 0
	for {
		chunk, err := source.Next()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				p.logger.Info("input exhausted", "chunks", chunkIndex, "rows", offset)
				return nil
			}
			return fmt.Errorf("reading chunk %d: %w", chunkIndex, err)
		}
		p.logger.Info("processing rows", "from", offset, "to", offset+chunk.Len())

		goodChunk, badChunk, res, err := p.ProcessChunk(chunk)
		if err != nil {
			return fmt.Errorf("processing chunk %d: %w", chunkIndex, err)
		}
		if err := good.Append(goodChunk); err != nil {
			return fmt.Errorf("appending good rows of chunk %d: %w", chunkIndex, err)
		}
		if err := bad.Append(badChunk); err != nil {
			return fmt.Errorf("appending bad rows of chunk %d: %w", chunkIndex, err)
		}
		p.logger.Info("saved processed rows",
			"from", offset, "to", offset+chunk.Len(),
			"good", res.Good, "bad", res.Bad, "outliers", res.Outliers)

		offset += chunk.Len()
		chunkIndex++
	}
}

// ProcessChunk runs all stages over one chunk and returns the good and bad
// partitions. Together they hold every row of the deduplicated chunk.
func (p *Pipeline) ProcessChunk(chunk *frame.Frame) (*frame.Frame, *frame.Frame, Result, error) {
	data := dedupe(chunk)

	data, err := p.flattenGuide(data)
	if err != nil {
		return nil, nil, Result{}, err
	}
	data, err = p.normalize(data)
	if err != nil {
		return nil, nil, Result{}, err
	}
	p.cleanNumerics(data)

	good, bad := splitByMissing(data)

	imputed := p.imputer.Impute(bad, good)

	if p.cfg.EncodeCategoricals {
		good = p.enc.Encode(good, p.cfg.ExcludeFromEncode, p.encState)
		imputed = p.enc.Encode(imputed, p.cfg.ExcludeFromEncode, p.encState)
	}

	mask := p.detector.Detect(good, data, p.cfg.NumericColumns)
	outliers := good.Filter(mask)
	good = good.Filter(invert(mask, good.Len()))
	imputed.Append(outliers)

	p.scale(good)

	res := Result{
		Rows:     data.Len(),
		Good:     good.Len(),
		Bad:      imputed.Len(),
		Outliers: outliers.Len(),
	}
	return good, imputed, res, nil
}

// dedupe drops exact duplicate rows, keeping the first occurrence.
func dedupe(f *frame.Frame) *frame.Frame {
	seen := make(map[uint64]bool, f.Len())
	mask := make([]bool, f.Len())
	for r := 0; r < f.Len(); r++ {
		h := rowDigest(f, r)
		if !seen[h] {
			seen[h] = true
			mask[r] = true
		}
	}
	return f.Filter(mask)
}

// rowDigest hashes a row across all fields, kind included, so the string "1"
// and the number 1 do not collide.
func rowDigest(f *frame.Frame, row int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, cell := range f.Row(row) {
		_, _ = d.Write([]byte{byte(cell.Kind()), 0xff})
		if v, ok := cell.Number(); ok {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
		if s, ok := cell.Str(); ok {
			_, _ = d.WriteString(s)
		}
		_, _ = d.Write([]byte{0xfe})
	}
	return d.Sum64()
}

// flattenGuide decomposes the parental-guide composite into one severity and
// two vote-count columns per category. The category order is fixed by the
// first guide encountered and reused for the rest of the run so output
// columns stay aligned across chunks. A missing or unparseable guide is a
// structural failure: every downstream column depends on this stage, so the
// chunk aborts rather than producing corrupt output.
func (p *Pipeline) flattenGuide(f *frame.Frame) (*frame.Frame, error) {
	col := p.cfg.GuideColumn
	if col == "" {
		return f, nil
	}
	cells, ok := f.Column(col)
	if !ok {
		return nil, errors.NewColumnNotFoundError("guide", col)
	}

	perRow := make([][]fieldnorm.GuideCategory, f.Len())
	for r, cell := range cells {
		if cell.IsMissing() {
			return nil, errors.NewStructuralError("guide", col, fmt.Sprintf("row %d has no guide value", r))
		}
		cats, err := fieldnorm.ParseGuide(cell.Text())
		if err != nil {
			return nil, &errors.PipelineError{
				Stage: "guide", Column: col,
				Message: fmt.Sprintf("row %d has malformed guide", r), Cause: err,
			}
		}
		perRow[r] = cats
		for _, c := range cats {
			if !containsStr(p.guideOrder, c.Name) {
				p.guideOrder = append(p.guideOrder, c.Name)
			}
		}
	}

	out := f.Clone()
	out.DropColumn(col)
	for _, name := range p.guideOrder {
		severity := make([]frame.Cell, f.Len())
		votes := make([]frame.Cell, f.Len())
		total := make([]frame.Cell, f.Len())
		for r, cats := range perRow {
			for _, c := range cats {
				if c.Name == name {
					severity[r] = c.Severity
					votes[r] = c.NumberOfVotes
					total[r] = c.TotalVotes
					break
				}
			}
		}
		_ = out.AddColumn(name+"_Severity", severity)
		_ = out.AddColumn(name+"_Number_of_votes", votes)
		_ = out.AddColumn(name+"_Total_votes", total)
	}
	return out, nil
}

// normalize flag-replaces sentinels, drops the structurally empty columns,
// and parses the duration, date-and-place and money fields. Money values get
// the log(1+x) transform, and the profit margin is derived whenever the chunk
// has any budget or gross signal at all.
func (p *Pipeline) normalize(f *frame.Frame) (*frame.Frame, error) {
	out := fieldnorm.ReplaceFlagsFrame(f, p.cfg.FlagTokens)

	for _, col := range p.cfg.DropColumns {
		if !out.HasColumn(col) {
			p.logger.Warn("drop column absent from chunk", "column", col)
			continue
		}
		out.DropColumn(col)
	}

	if col := p.cfg.DurationColumn; col != "" {
		cells, ok := out.Column(col)
		if !ok {
			return nil, errors.NewColumnNotFoundError("normalize", col)
		}
		for i, c := range cells {
			cells[i] = fieldnorm.ParseDuration(c)
		}
	}

	if col := p.cfg.DateColumn; col != "" {
		cells, ok := out.Column(col)
		if !ok {
			return nil, errors.NewColumnNotFoundError("normalize", col)
		}
		places := make([]frame.Cell, len(cells))
		for i, c := range cells {
			date, place := fieldnorm.SplitDateAndPlace(c)
			cells[i] = date
			places[i] = place
		}
		_ = out.AddColumn(p.cfg.PlaceColumn, places)
	}

	for _, col := range []string{p.cfg.BudgetColumn, p.cfg.GrossColumn} {
		if col == "" {
			continue
		}
		cells, ok := out.Column(col)
		if !ok {
			return nil, errors.NewColumnNotFoundError("normalize", col)
		}
		for i, c := range cells {
			cells[i] = fieldnorm.Log1p(fieldnorm.ParseMoney(c))
		}
	}

	if p.cfg.ProfitColumn != "" && p.cfg.BudgetColumn != "" && p.cfg.GrossColumn != "" {
		if !out.ColumnAllMissing(p.cfg.GrossColumn) || !out.ColumnAllMissing(p.cfg.BudgetColumn) {
			profit := make([]frame.Cell, out.Len())
			for i := range profit {
				g, gok := out.Cell(p.cfg.GrossColumn, i).Number()
				b, bok := out.Cell(p.cfg.BudgetColumn, i).Number()
				if gok && bok {
					profit[i] = frame.Number(g - b)
				} else {
					profit[i] = frame.Missing()
				}
			}
			_ = out.AddColumn(p.cfg.ProfitColumn, profit)
		}
	}

	return out, nil
}

// cleanNumerics coerces the configured columns to numbers in place. A column
// absent from the chunk is a recoverable condition here, unlike the composite
// stages: nothing downstream requires it structurally.
func (p *Pipeline) cleanNumerics(f *frame.Frame) {
	for _, col := range p.cfg.CleanNumericColumns {
		cells, ok := f.Column(col)
		if !ok {
			p.logger.Warn("numeric column absent from chunk", "column", col)
			continue
		}
		for i, c := range cells {
			cells[i] = fieldnorm.CleanNumeric(c)
		}
	}
}

// splitByMissing partitions rows into complete and incomplete.
func splitByMissing(f *frame.Frame) (complete, incomplete *frame.Frame) {
	mask := make([]bool, f.Len())
	for r := 0; r < f.Len(); r++ {
		mask[r] = !f.RowMissing(r)
	}
	return f.Filter(mask), f.Filter(invert(mask, f.Len()))
}

// scale min-max normalizes the configured numeric columns of the good
// partition to [0, 1]. The fit is per chunk, not global: the same raw value
// can land on different scaled values in different chunks. Known limitation,
// recorded in DESIGN.md.
func (p *Pipeline) scale(f *frame.Frame) {
	for _, col := range p.cfg.NumericColumns {
		cells, ok := f.Column(col)
		if !ok {
			continue
		}
		var vals []float64
		for _, c := range cells {
			if v, numOK := c.Number(); numOK {
				vals = append(vals, v)
			}
		}
		if len(vals) == 0 {
			continue
		}
		lo, hi := floats.Min(vals), floats.Max(vals)
		span := hi - lo
		for i, c := range cells {
			if v, numOK := c.Number(); numOK {
				if span == 0 {
					cells[i] = frame.Number(0)
				} else {
					cells[i] = frame.Number((v - lo) / span)
				}
			}
		}
	}
}

func invert(mask []bool, n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n; i++ {
		out[i] = i >= len(mask) || !mask[i]
	}
	return out
}

func containsStr(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
