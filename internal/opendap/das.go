package opendap

import (
	"fmt"
	"strconv"
	"strings"
)

// Attribute is one typed DAS attribute
type Attribute struct {
	Type   string
	Values []string
}

// AttrTable holds the attributes of one variable (or container)
type AttrTable map[string]Attribute

// Float returns the first value of a numeric attribute
func (t AttrTable) Float(name string) (float64, bool) {
	a, ok := t[name]
	if !ok || len(a.Values) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(a.Values[0], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Attributes maps variable names to their attribute tables. Nested
// containers are flattened with dotted names ("hs.extra").
type Attributes map[string]AttrTable

// ParseDAS parses the text form of a Dataset Attribute Structure
func ParseDAS(src string) (Attributes, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, fmt.Errorf("parsing DAS: %w", err)
	}
	if err := p.expectKeyword("Attributes"); err != nil {
		return nil, fmt.Errorf("parsing DAS: %w", err)
	}
	if err := p.expectPunct("{"); err != nil {
		return nil, fmt.Errorf("parsing DAS: %w", err)
	}

	attrs := make(Attributes)
	for !p.isPunct("}") {
		if p.peek().kind == tokEOF {
			return nil, fmt.Errorf("parsing DAS: unexpected end of input")
		}
		name, err := p.expectName()
		if err != nil {
			return nil, fmt.Errorf("parsing DAS: %w", err)
		}
		if err := p.parseContainer(attrs, name); err != nil {
			return nil, fmt.Errorf("parsing DAS: %w", err)
		}
	}
	return attrs, nil
}

func (p *parser) parseContainer(attrs Attributes, name string) error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	table := make(AttrTable)
	attrs[name] = table

	for !p.isPunct("}") {
		t := p.next()
		if t.kind == tokEOF {
			return fmt.Errorf("container %s: unexpected end of input", name)
		}
		if t.kind != tokWord && t.kind != tokString {
			return fmt.Errorf("line %d: expected attribute, got %s", t.line, t)
		}

		// nested container
		if p.isPunct("{") {
			if err := p.parseContainer(attrs, name+"."+t.text); err != nil {
				return err
			}
			continue
		}

		attrName, err := p.expectName()
		if err != nil {
			return err
		}
		var values []string
		for {
			v := p.next()
			if v.kind != tokWord && v.kind != tokString {
				return fmt.Errorf("line %d: expected value for %s, got %s", v.line, attrName, v)
			}
			values = append(values, v.text)
			if p.isPunct(",") {
				p.next()
				continue
			}
			break
		}
		if err := p.expectPunct(";"); err != nil {
			return err
		}
		table[attrName] = Attribute{Type: strings.ToLower(t.text), Values: values}
	}
	p.next()
	return nil
}
