package fieldnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGuide = `{'Sex & Nudity': {'Severity': 'Moderate', 'Number of vote:': 120, 'Total votes:': 480}, ` +
	`'Profanity': {'Severity': 'N/A', 'Number of vote:': 'N/A', 'Total votes': 'N/A'}}`

func TestParseGuide(t *testing.T) {
	cats, err := ParseGuide(sampleGuide)
	require.NoError(t, err)
	require.Len(t, cats, 2)

	// Insertion order of the printed dictionary is preserved.
	assert.Equal(t, "Sex & Nudity", cats[0].Name)
	assert.Equal(t, "Profanity", cats[1].Name)

	assert.Equal(t, "Moderate", cats[0].Severity.Text())
	votes, ok := cats[0].NumberOfVotes.Number()
	require.True(t, ok)
	assert.Equal(t, 120.0, votes)
	total, ok := cats[0].TotalVotes.Number()
	require.True(t, ok)
	assert.Equal(t, 480.0, total)

	// The crawler writes "Total votes" both with and without a colon.
	assert.Equal(t, "N/A", cats[1].TotalVotes.Text())
	assert.Equal(t, "N/A", cats[1].Severity.Text())
}

func TestParseGuideEscapesAndNone(t *testing.T) {
	cats, err := ParseGuide(`{'Kids\' Corner': {'Severity': None, 'Number of vote:': 3}}`)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Kids' Corner", cats[0].Name)
	assert.True(t, cats[0].Severity.IsMissing())
	assert.True(t, cats[0].TotalVotes.IsMissing())
}

func TestParseGuideDoubleQuotes(t *testing.T) {
	cats, err := ParseGuide(`{"Violence & Gore": {"Severity": "Severe"}}`)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Severe", cats[0].Severity.Text())
}

func TestParseGuideMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "not a dict", in: "'Severity'"},
		{name: "truncated", in: "{'Profanity': {'Severity': 'Mild'"},
		{name: "trailing junk", in: "{} extra"},
		{name: "flag token", in: "N/A"},
		{name: "category not a dict", in: "{'Profanity': 3}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGuide(tt.in)
			assert.Error(t, err)
		})
	}
}
