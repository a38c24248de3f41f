package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviedex/preproc/internal/frame"
)

func singleValueChunk(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New()
	require.NoError(t, f.AddColumn("Rating", []frame.Cell{
		frame.Number(8.1), frame.Number(7.2), frame.Number(6.3), frame.Number(5.4),
	}))
	require.NoError(t, f.AddColumn("Genre", []frame.Cell{
		frame.String("Drama"), frame.String("Comedy"), frame.String("Drama"), frame.String("Horror"),
	}))
	return f
}

func TestFitSingleValue(t *testing.T) {
	c := New(2)
	cs := c.Fit(singleValueChunk(t), "Genre")

	assert.False(t, cs.MultiValue)
	// Drama wins on count; Comedy beats Horror on first-seen order.
	assert.Equal(t, []string{"Drama", "Comedy"}, cs.Values)
}

func TestFitMultiValue(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn("Cast", []frame.Cell{
		frame.String("A|B"), frame.String("B|C"),
	}))

	c := New(10)
	cs := c.Fit(f, "Cast")
	assert.True(t, cs.MultiValue)
	assert.Equal(t, []string{"B", "A", "C"}, cs.Values)
}

func TestEncode(t *testing.T) {
	c := New(2)
	state := NewState()
	out := c.Encode(singleValueChunk(t), []string{"Rating"}, state)

	// Excluded column untouched, original dropped, indicators appended.
	assert.Equal(t, []string{"Rating", "Genre_Drama", "Genre_Comedy"}, out.Columns())
	wantDrama := []float64{1, 0, 1, 0}
	wantComedy := []float64{0, 1, 0, 0}
	for i := 0; i < out.Len(); i++ {
		d, ok := out.Cell("Genre_Drama", i).Number()
		require.True(t, ok)
		assert.Equal(t, wantDrama[i], d)
		co, ok := out.Cell("Genre_Comedy", i).Number()
		require.True(t, ok)
		assert.Equal(t, wantComedy[i], co)
	}
}

func TestRoundTripTopK(t *testing.T) {
	c := New(2)
	state := NewState()
	chunk := singleValueChunk(t)
	decoded := c.Decode(c.Encode(chunk, []string{"Rating"}, state), state)

	// Values inside the retained set come back exactly; Horror fell outside
	// top-K and decodes to the empty string, not the original.
	want := []string{"Drama", "Comedy", "Drama", ""}
	for i, w := range want {
		assert.Equal(t, w, decoded.Cell("Genre", i).Text())
	}
	// The untouched column survives the trip.
	v, ok := decoded.Cell("Rating", 1).Number()
	require.True(t, ok)
	assert.Equal(t, 7.2, v)
}

func TestRoundTripMultiValue(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn("Cast", []frame.Cell{
		frame.String("A|B"), frame.String("B|C"), frame.String("D"),
	}))

	c := New(3)
	state := NewState()
	decoded := c.Decode(c.Encode(f, nil, state), state)

	// Retained tags come back delimiter-joined in rank order, so "A|B"
	// reads back as "B|A" (B has the higher count). D fell outside top-K
	// and decodes to the empty string.
	assert.Equal(t, "B|A", decoded.Cell("Cast", 0).Text())
	assert.Equal(t, "B|C", decoded.Cell("Cast", 1).Text())
	assert.Equal(t, "", decoded.Cell("Cast", 2).Text())
}

func TestStateReuseAcrossChunks(t *testing.T) {
	c := New(2)
	state := NewState()
	_ = c.Encode(singleValueChunk(t), []string{"Rating"}, state)

	// A later chunk full of unseen genres must reuse the fitted values, so
	// indicator columns stay aligned with the first chunk's.
	later := frame.New()
	require.NoError(t, later.AddColumn("Rating", []frame.Cell{frame.Number(9)}))
	require.NoError(t, later.AddColumn("Genre", []frame.Cell{frame.String("Scifi")}))

	out := c.Encode(later, []string{"Rating"}, state)
	assert.Equal(t, []string{"Rating", "Genre_Drama", "Genre_Comedy"}, out.Columns())
	d, _ := out.Cell("Genre_Drama", 0).Number()
	co, _ := out.Cell("Genre_Comedy", 0).Number()
	assert.Equal(t, 0.0, d)
	assert.Equal(t, 0.0, co)
}

func TestEncodeMissingCountsAsEmpty(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddColumn("Place", []frame.Cell{
		frame.Missing(), frame.Missing(), frame.String("USA"),
	}))

	c := New(1)
	state := NewState()
	out := c.Encode(f, nil, state)

	// Missing stringifies to "" and dominates by frequency.
	cs, ok := state.Column("Place")
	require.True(t, ok)
	assert.Equal(t, []string{""}, cs.Values)
	v, _ := out.Cell("Place_", 0).Number()
	assert.Equal(t, 1.0, v)
}
