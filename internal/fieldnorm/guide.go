package fieldnorm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/moviedex/preproc/internal/frame"
)

// GuideCategory is one parental-guide category flattened from the composite
// field, e.g. "Violence & Gore" with its severity label and vote counts.
type GuideCategory struct {
	Name          string
	Severity      frame.Cell
	NumberOfVotes frame.Cell
	TotalVotes    frame.Cell
}

// ParseGuide parses the parental-guide composite field. The crawler stores it
// as the printed form of a two-level dictionary:
//
//	{'Profanity': {'Severity': 'Mild', 'Number of vote:': 120, 'Total votes:': 480}, ...}
//
// The inner "Total votes" key appears both with and without a trailing colon
// in crawled data; both spellings are accepted. A guide that cannot be parsed
// is a structural failure: the caller aborts the chunk.
func ParseGuide(text string) ([]GuideCategory, error) {
	p := &guideParser{src: text}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing data at offset %d", p.pos)
	}
	top, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("guide is not a dictionary")
	}
	cats := make([]GuideCategory, 0, len(p.topOrder))
	for _, name := range p.topOrder {
		details, ok := top[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("category %q is not a dictionary", name)
		}
		cat := GuideCategory{
			Name:          name,
			Severity:      guideCell(details, "Severity"),
			NumberOfVotes: guideCell(details, "Number of vote:"),
			TotalVotes:    guideCell(details, "Total votes:", "Total votes"),
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

func guideCell(details map[string]any, keys ...string) frame.Cell {
	for _, k := range keys {
		switch v := details[k].(type) {
		case string:
			return frame.String(v)
		case float64:
			return frame.Number(v)
		}
	}
	return frame.Missing()
}

// guideParser is a minimal recursive-descent parser for the printed-dict
// subset the crawler emits: nested dicts, quoted strings, numbers and None.
type guideParser struct {
	src      string
	pos      int
	depth    int
	topOrder []string // insertion order of top-level categories
}

func (p *guideParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *guideParser) parseValue() (any, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseDict()
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		return p.parseNumber()
	case strings.HasPrefix(p.src[p.pos:], "None"):
		p.pos += len("None")
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected character %q at offset %d", c, p.pos)
	}
}

func (p *guideParser) parseDict() (map[string]any, error) {
	p.pos++ // '{'
	p.depth++
	defer func() { p.depth-- }()

	out := make(map[string]any)
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = val
		if p.depth == 1 {
			p.topOrder = append(p.topOrder, key)
		}
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("unterminated dictionary")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, fmt.Errorf("expected ',' or '}' at offset %d", p.pos)
		}
	}
}

func (p *guideParser) parseString() (string, error) {
	if p.pos >= len(p.src) || (p.src[p.pos] != '\'' && p.src[p.pos] != '"') {
		return "", fmt.Errorf("expected string at offset %d", p.pos)
	}
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("unterminated escape")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *guideParser) parseNumber() (float64, error) {
	start := p.pos
	if p.src[p.pos] == '-' || p.src[p.pos] == '+' {
		p.pos++
	}
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.') {
		p.pos++
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number at offset %d: %w", start, err)
	}
	return v, nil
}
