package impute

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/moviedex/preproc/internal/errors"
)

// DefaultNeighbors is the default k for the kNN learners.
const DefaultNeighbors = 5

// knnCore stores the training set and answers nearest-neighbor queries with a
// NaN-masked Euclidean distance, so rows with partially missing features can
// still be compared on the dimensions both rows carry.
type knnCore struct {
	k        int
	features [][]float64
}

func (c *knnCore) fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.ErrNoTrainingRows
	}
	c.features = features
	return nil
}

// neighbors returns the indices of the k nearest training rows, ordered by
// distance with index as tiebreak for determinism.
func (c *knnCore) neighbors(query []float64) []int {
	type scored struct {
		idx  int
		dist float64
	}
	scores := make([]scored, len(c.features))
	for i, row := range c.features {
		scores[i] = scored{idx: i, dist: maskedDistance(query, row)}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].dist != scores[j].dist {
			return scores[i].dist < scores[j].dist
		}
		return scores[i].idx < scores[j].idx
	})
	k := c.k
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = scores[i].idx
	}
	return out
}

// maskedDistance is the Euclidean distance over the dimensions where both
// vectors are observed, rescaled by the fraction of usable dimensions. Two
// vectors sharing no observed dimension are infinitely far apart.
func maskedDistance(a, b []float64) float64 {
	var sum float64
	used := 0
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		d := a[i] - b[i]
		sum += d * d
		used++
	}
	if used == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(sum * float64(len(a)) / float64(used))
}

// KNNRegressor predicts a numeric target as the mean of its k nearest
// neighbors' targets.
type KNNRegressor struct {
	core    knnCore
	targets []float64
}

// NewKNNRegressor returns a regressor with the given neighbor count.
func NewKNNRegressor(k int) *KNNRegressor {
	if k <= 0 {
		k = DefaultNeighbors
	}
	return &KNNRegressor{core: knnCore{k: k}}
}

// Fit stores the training set.
func (r *KNNRegressor) Fit(features [][]float64, targets []float64) error {
	if len(features) != len(targets) {
		return errors.ErrMismatchedLength
	}
	if err := r.core.fit(features); err != nil {
		return err
	}
	r.targets = targets
	return nil
}

// Predict returns one prediction per query row.
func (r *KNNRegressor) Predict(features [][]float64) ([]float64, error) {
	if r.core.features == nil {
		return nil, errors.ErrNoTrainingRows
	}
	out := make([]float64, len(features))
	for i, q := range features {
		nn := r.core.neighbors(q)
		vals := make([]float64, len(nn))
		for j, idx := range nn {
			vals[j] = r.targets[idx]
		}
		out[i] = stat.Mean(vals, nil)
	}
	return out, nil
}

// KNNClassifier predicts a label as the majority vote of its k nearest
// neighbors, ties broken in favor of the closer neighbor.
type KNNClassifier struct {
	core   knnCore
	labels []int
}

// NewKNNClassifier returns a classifier with the given neighbor count.
func NewKNNClassifier(k int) *KNNClassifier {
	if k <= 0 {
		k = DefaultNeighbors
	}
	return &KNNClassifier{core: knnCore{k: k}}
}

// Fit stores the training set.
func (c *KNNClassifier) Fit(features [][]float64, labels []int) error {
	if len(features) != len(labels) {
		return errors.ErrMismatchedLength
	}
	if err := c.core.fit(features); err != nil {
		return err
	}
	c.labels = labels
	return nil
}

// Predict returns one label per query row.
func (c *KNNClassifier) Predict(features [][]float64) ([]int, error) {
	if c.core.features == nil {
		return nil, errors.ErrNoTrainingRows
	}
	out := make([]int, len(features))
	for i, q := range features {
		nn := c.core.neighbors(q)
		votes := make(map[int]int)
		best := c.labels[nn[0]]
		for _, idx := range nn {
			label := c.labels[idx]
			votes[label]++
			if votes[label] > votes[best] {
				best = label
			}
		}
		out[i] = best
	}
	return out, nil
}
