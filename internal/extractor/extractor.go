// Package extractor drives the JSON scanner across one record,
// matching field-tree selectors against the record's structure and
// assigning matched terminal tokens to the tree's leaves.
package extractor

import (
	"fmt"

	"github.com/ryftone/caggs/internal/fieldpath"
	"github.com/ryftone/caggs/internal/jsonscan"
	"github.com/ryftone/caggs/internal/token"
)

// Get consumes exactly one JSON value from p, whose top must be an
// object or array, matching fields (the root of a field tree built by
// fieldpath.BuildForest) against it. For each matched selector it
// writes the matched token into the node's Token (descending into
// Children first for nested objects/arrays).
func Get(p *jsonscan.Parser, fields *fieldpath.Node) error {
	tok, err := p.Next()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case token.ObjectBeg:
		return getObject(p, fields)
	case token.ArrayBeg:
		return getArray(p, fields)
	default:
		return fmt.Errorf("extractor: expected object or array at offset %d, got %s", tok.Begin, tok.Kind)
	}
}

func getObject(p *jsonscan.Parser, fields *fieldpath.Node) error {
	for {
		key, err := p.Next()
		if err != nil {
			return err
		}
		if key.Kind == token.ObjectEnd {
			return nil
		}
		if key.Kind != token.String && key.Kind != token.StringEsc {
			return fmt.Errorf("extractor: expected string key at offset %d, got %s", key.Begin, key.Kind)
		}

		colon, err := p.Next()
		if err != nil {
			return err
		}
		if colon.Kind != token.Colon {
			return fmt.Errorf("extractor: expected ':' at offset %d, got %s", colon.Begin, colon.Kind)
		}

		sf := fieldpath.LookupByName(fields, p.Bytes(key))

		val, err := p.Next()
		if err != nil {
			return err
		}
		if err := dispatchValue(p, sf, val); err != nil {
			return err
		}

		sep, err := p.Next()
		if err != nil {
			return err
		}
		switch sep.Kind {
		case token.Comma:
			continue
		case token.ObjectEnd:
			return nil
		default:
			return fmt.Errorf("extractor: expected ',' or '}' at offset %d, got %s", sep.Begin, sep.Kind)
		}
	}
}

func getArray(p *jsonscan.Parser, fields *fieldpath.Node) error {
	i := int32(0)

	first, err := p.Next()
	if err != nil {
		return err
	}
	if first.Kind == token.ArrayEnd {
		return nil
	}
	if err := p.PutBack(first); err != nil {
		return err
	}

	for {
		sf := fieldpath.LookupByIndex(fields, i)

		val, err := p.Next()
		if err != nil {
			return err
		}
		if err := dispatchValue(p, sf, val); err != nil {
			return err
		}
		i++

		sep, err := p.Next()
		if err != nil {
			return err
		}
		switch sep.Kind {
		case token.Comma:
			continue
		case token.ArrayEnd:
			return nil
		default:
			return fmt.Errorf("extractor: expected ',' or ']' at offset %d, got %s", sep.Begin, sep.Kind)
		}
	}
}

// dispatchValue handles one already-consumed value token `val`
// against the matched selector `sf` (nil if unmatched).
func dispatchValue(p *jsonscan.Parser, sf *fieldpath.Node, val token.Token) error {
	switch val.Kind {
	case token.ObjectBeg:
		return dispatchComposite(p, sf, val.Begin, token.Object, getObject, p.SkipObject)
	case token.ArrayBeg:
		return dispatchComposite(p, sf, val.Begin, token.Array, getArray, p.SkipArray)
	default:
		if !val.Kind.IsPrimitive() {
			return fmt.Errorf("extractor: unexpected value token %s at offset %d", val.Kind, val.Begin)
		}
		if sf != nil {
			sf.Token = val
		}
		return nil
	}
}

// dispatchComposite handles a matched object/array value: if the
// selector has children, it descends with descend (getObject or
// getArray, called as if their opening token were already consumed);
// otherwise it skips the value with skip. Either way, if matched, the
// selector's Token is set to the composite span from the opening
// brace/bracket to the cursor position once the value is fully
// consumed.
func dispatchComposite(p *jsonscan.Parser, sf *fieldpath.Node, begin int, kind token.Kind, descend func(*jsonscan.Parser, *fieldpath.Node) error, skip func() error) error {
	if sf == nil {
		return skip()
	}
	if sf.Children != nil {
		if err := descend(p, sf.Children); err != nil {
			return err
		}
	} else if err := skip(); err != nil {
		return err
	}
	sf.Token = token.Token{Kind: kind, Begin: begin, End: p.Cursor()}
	return nil
}
