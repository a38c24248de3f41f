// Package impute fills missing values with predictions from auxiliary
// supervised models. One model is trained per column with missing entries,
// using every other column as features; the whole sweep repeats for a fixed
// iteration budget so columns imputed early can inform columns imputed later.
//
// The learner is a capability, not an algorithm: any Regressor/Classifier
// pair can be plugged in. The default is a deterministic k-nearest-neighbor
// learner that tolerates missing feature values.
//
// Failure policy: a column whose model cannot be trained or applied falls
// back to the column mean (numeric) or mode (categorical). A column with no
// observed values at all has no fallback either and stays missing; callers
// must expect that degenerate case.
package impute

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/moviedex/preproc/internal/frame"
)

// DefaultMaxIterations is the fixed sweep budget.
const DefaultMaxIterations = 5

// Regressor is a supervised learner for numeric targets. Feature values may
// be NaN where the source cell was missing.
type Regressor interface {
	Fit(features [][]float64, targets []float64) error
	Predict(features [][]float64) ([]float64, error)
}

// Classifier is a supervised learner over a label-encoded category space.
type Classifier interface {
	Fit(features [][]float64, labels []int) error
	Predict(features [][]float64) ([]int, error)
}

// Imputer fills missing values in the incomplete partition of a chunk.
type Imputer struct {
	MaxIterations int
	NewRegressor  func() Regressor
	NewClassifier func() Classifier
	logger        *slog.Logger
}

// New returns an imputer with the default kNN learners.
func New(maxIterations int, logger *slog.Logger) *Imputer {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Imputer{
		MaxIterations: maxIterations,
		NewRegressor:  func() Regressor { return NewKNNRegressor(DefaultNeighbors) },
		NewClassifier: func() Classifier { return NewKNNClassifier(DefaultNeighbors) },
		logger:        logger,
	}
}

// Impute returns a copy of incomplete with missing values filled. Models are
// trained over the union of reference and incomplete, on rows where the
// target is observed; reference carries the chunk's complete rows and so
// supplies most of the training data. Numeric columns are swept before
// categorical ones and the sweep runs exactly MaxIterations times, with no
// early exit, so repeated runs over the same chunk fill the same cells.
func (im *Imputer) Impute(incomplete, reference *frame.Frame) *frame.Frame {
	union := reference.Clone()
	union.Append(incomplete)
	offset := reference.Len()

	// Column roles are decided once, up front, like a dtype split.
	var numeric, categorical []string
	for _, col := range union.Columns() {
		if union.IsNumericColumn(col) {
			numeric = append(numeric, col)
		} else {
			categorical = append(categorical, col)
		}
	}

	for pass := 1; pass <= im.MaxIterations; pass++ {
		im.logger.Info("imputation pass", "pass", pass, "of", im.MaxIterations)
		for _, col := range numeric {
			if !union.ColumnMissing(col) {
				continue
			}
			im.imputeNumeric(union, col)
		}
		for _, col := range categorical {
			if !union.ColumnMissing(col) {
				continue
			}
			im.imputeCategorical(union, col)
		}
	}

	out := frame.NewWithColumns(incomplete.Columns())
	for r := offset; r < union.Len(); r++ {
		row := make([]frame.Cell, 0, len(incomplete.Columns()))
		for _, col := range incomplete.Columns() {
			row = append(row, union.Cell(col, r))
		}
		_ = out.AppendRow(row)
	}
	return out
}

func (im *Imputer) imputeNumeric(u *frame.Frame, col string) {
	features := featureMatrix(u, col)
	cells, _ := u.Column(col)

	var trainX [][]float64
	var trainY []float64
	var predictRows []int
	for i, c := range cells {
		if v, ok := c.Number(); ok {
			trainX = append(trainX, features[i])
			trainY = append(trainY, v)
		} else {
			predictRows = append(predictRows, i)
		}
	}
	if len(trainY) == 0 {
		im.logger.Warn("column has no observed values, leaving missing", "column", col)
		return
	}

	model := im.NewRegressor()
	if err := model.Fit(trainX, trainY); err != nil {
		im.logger.Warn("regressor training failed, falling back to mean", "column", col, "err", err)
		im.fallbackMean(u, col)
		return
	}
	predictX := make([][]float64, len(predictRows))
	for i, r := range predictRows {
		predictX[i] = features[r]
	}
	predicted, err := model.Predict(predictX)
	if err != nil || len(predicted) != len(predictRows) {
		im.logger.Warn("regressor prediction failed, falling back to mean", "column", col, "err", err)
		im.fallbackMean(u, col)
		return
	}
	for i, r := range predictRows {
		u.SetCell(col, r, frame.Number(predicted[i]))
	}
}

func (im *Imputer) imputeCategorical(u *frame.Frame, col string) {
	features := featureMatrix(u, col)
	cells, _ := u.Column(col)

	// Label-encode the target over first-seen observed values.
	labelOf := make(map[string]int)
	var labels []string
	var trainX [][]float64
	var trainY []int
	var predictRows []int
	for i, c := range cells {
		if c.IsMissing() {
			predictRows = append(predictRows, i)
			continue
		}
		text := c.Text()
		id, ok := labelOf[text]
		if !ok {
			id = len(labels)
			labelOf[text] = id
			labels = append(labels, text)
		}
		trainX = append(trainX, features[i])
		trainY = append(trainY, id)
	}
	if len(trainY) == 0 {
		im.logger.Warn("column has no observed values, leaving missing", "column", col)
		return
	}

	model := im.NewClassifier()
	if err := model.Fit(trainX, trainY); err != nil {
		im.logger.Warn("classifier training failed, falling back to mode", "column", col, "err", err)
		im.fallbackMode(u, col)
		return
	}
	predictX := make([][]float64, len(predictRows))
	for i, r := range predictRows {
		predictX[i] = features[r]
	}
	predicted, err := model.Predict(predictX)
	if err != nil || len(predicted) != len(predictRows) {
		im.logger.Warn("classifier prediction failed, falling back to mode", "column", col, "err", err)
		im.fallbackMode(u, col)
		return
	}
	for i, r := range predictRows {
		id := predicted[i]
		if id < 0 || id >= len(labels) {
			im.fallbackMode(u, col)
			return
		}
		u.SetCell(col, r, frame.String(labels[id]))
	}
}

// fallbackMean fills every missing cell of the column with the mean of its
// observed values.
func (im *Imputer) fallbackMean(u *frame.Frame, col string) {
	cells, _ := u.Column(col)
	var vals []float64
	for _, c := range cells {
		if v, ok := c.Number(); ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return
	}
	mean := stat.Mean(vals, nil)
	for i, c := range cells {
		if c.IsMissing() {
			u.SetCell(col, i, frame.Number(mean))
		}
	}
}

// fallbackMode fills every missing cell of the column with its most frequent
// observed value, ties broken by first-seen order.
func (im *Imputer) fallbackMode(u *frame.Frame, col string) {
	cells, _ := u.Column(col)
	counts := make(map[string]int)
	var seen []string
	for _, c := range cells {
		if c.IsMissing() {
			continue
		}
		text := c.Text()
		if _, ok := counts[text]; !ok {
			seen = append(seen, text)
		}
		counts[text]++
	}
	if len(seen) == 0 {
		return
	}
	mode := seen[0]
	for _, v := range seen[1:] {
		if counts[v] > counts[mode] {
			mode = v
		}
	}
	for i, c := range cells {
		if c.IsMissing() {
			u.SetCell(col, i, frame.String(mode))
		}
	}
}

// featureMatrix builds the per-row feature vectors from every column except
// target: numeric columns contribute their value, categorical columns a
// first-seen label code, missing cells NaN.
func featureMatrix(u *frame.Frame, target string) [][]float64 {
	rows := u.Len()
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, 0, u.Width()-1)
	}
	for _, col := range u.Columns() {
		if col == target {
			continue
		}
		cells, _ := u.Column(col)
		if u.IsNumericColumn(col) {
			for i, c := range cells {
				if v, ok := c.Number(); ok {
					out[i] = append(out[i], v)
				} else {
					out[i] = append(out[i], math.NaN())
				}
			}
			continue
		}
		codes := make(map[string]int)
		next := 0
		for i, c := range cells {
			if c.IsMissing() {
				out[i] = append(out[i], math.NaN())
				continue
			}
			text := c.Text()
			code, ok := codes[text]
			if !ok {
				code = next
				codes[text] = code
				next++
			}
			out[i] = append(out[i], float64(code))
		}
	}
	return out
}
