package quotes

import (
	"fmt"
	"strings"
	"unicode"
)

// Metadata is the subset of request_metadata carried onto each quote.
type Metadata struct {
	JobType   string
	OrderSize string
	EventType string
}

// ParseMetadata reads a dict literal such as
// {'job_type': 'office manager', 'order_size': 'small', 'event_type': 'party'}.
// Both quote styles are accepted, non-string values are kept as their
// literal text, and None becomes an empty string. Missing keys stay empty.
func ParseMetadata(raw string) (Metadata, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Metadata{}, nil
	}
	p := &dictParser{src: []rune(raw)}
	fields, err := p.parse()
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
	}
	return Metadata{
		JobType:   fields["job_type"],
		OrderSize: fields["order_size"],
		EventType: fields["event_type"],
	}, nil
}

type dictParser struct {
	src []rune
	pos int
}

func (p *dictParser) parse() (map[string]string, error) {
	out := map[string]string{}
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return out, p.trailing()
	}
	for {
		p.skipSpace()
		key, err := p.quoted()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		value, err := p.value()
		if err != nil {
			return nil, err
		}
		out[key] = value
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return out, p.trailing()
			}
		case '}':
			p.pos++
			return out, p.trailing()
		default:
			return nil, fmt.Errorf("unexpected %q at %d", p.peek(), p.pos)
		}
	}
}

func (p *dictParser) value() (string, error) {
	if c := p.peek(); c == '\'' || c == '"' {
		return p.quoted()
	}
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != '}' {
		p.pos++
	}
	literal := strings.TrimSpace(string(p.src[start:p.pos]))
	if literal == "" {
		return "", fmt.Errorf("empty value at %d", start)
	}
	if literal == "None" {
		return "", nil
	}
	return literal, nil
}

func (p *dictParser) quoted() (string, error) {
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("expected string at %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		switch {
		case c == '\\' && p.pos < len(p.src):
			next := p.src[p.pos]
			p.pos++
			switch next {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			default:
				b.WriteRune(next)
			}
		case c == quote:
			return b.String(), nil
		default:
			b.WriteRune(c)
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *dictParser) expect(c rune) error {
	p.skipSpace()
	if p.peek() != c {
		return fmt.Errorf("expected %q at %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *dictParser) trailing() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return fmt.Errorf("trailing input at %d", p.pos)
	}
	return nil
}

func (p *dictParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *dictParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}
