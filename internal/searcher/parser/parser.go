// Package parser turns a query string into a QueryPlan: one term, or two
// terms joined by AND, OR, or AND NOT.
package parser

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/errors"
)

type Operator int

const (
	OpSingle Operator = iota
	OpAnd
	OpOr
	OpAndNot
)

func (o Operator) String() string {
	switch o {
	case OpSingle:
		return "single"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpAndNot:
		return "and_not"
	default:
		return "unknown"
	}
}

// MarshalText lets operators appear by name in JSON responses.
func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (o *Operator) UnmarshalText(text []byte) error {
	switch string(text) {
	case "single":
		*o = OpSingle
	case "and":
		*o = OpAnd
	case "or":
		*o = OpOr
	case "and_not":
		*o = OpAndNot
	default:
		return fmt.Errorf("unknown operator %q", text)
	}
	return nil
}

// QueryPlan is a parsed query. Right is empty for OpSingle.
type QueryPlan struct {
	Operator Operator
	Left     string
	Right    string
	RawQuery string
}

// Terms returns the plan's terms in query order.
func (p *QueryPlan) Terms() []string {
	if p.Operator == OpSingle {
		return []string{p.Left}
	}
	return []string{p.Left, p.Right}
}

// Canonical renders the plan in a normalised form, used as a cache key.
// AND and OR are commutative so their terms are ordered.
func (p *QueryPlan) Canonical() string {
	left, right := p.Left, p.Right
	if (p.Operator == OpAnd || p.Operator == OpOr) && right < left {
		left, right = right, left
	}
	if p.Operator == OpSingle {
		return p.Operator.String() + "|" + left
	}
	return p.Operator.String() + "|" + left + "|" + right
}

// Parse accepts "w", "w1 AND w2", "w1 OR w2", "w1 AND NOT w2" and
// "w1 NOT w2". Keywords are case-insensitive; terms are normalised the
// same way page text is.
func Parse(query string) (*QueryPlan, error) {
	words := strings.Fields(query)
	plan := &QueryPlan{RawQuery: query}

	var rightWords []string
	switch {
	case len(words) == 1:
		plan.Operator = OpSingle
	case len(words) == 3 && isKeyword(words[1], "AND"):
		plan.Operator = OpAnd
		rightWords = words[2:]
	case len(words) == 3 && isKeyword(words[1], "OR"):
		plan.Operator = OpOr
		rightWords = words[2:]
	case len(words) == 3 && isKeyword(words[1], "NOT"):
		plan.Operator = OpAndNot
		rightWords = words[2:]
	case len(words) == 4 && isKeyword(words[1], "AND") && isKeyword(words[2], "NOT"):
		plan.Operator = OpAndNot
		rightWords = words[3:]
	case len(words) == 0:
		return nil, fmt.Errorf("empty query: %w", apperrors.ErrInvalidQuery)
	default:
		return nil, fmt.Errorf("query %q: expected a term or two terms joined by AND, OR or AND NOT: %w", query, apperrors.ErrInvalidQuery)
	}

	left, err := term(words[0])
	if err != nil {
		return nil, err
	}
	plan.Left = left
	if plan.Operator != OpSingle {
		right, err := term(rightWords[0])
		if err != nil {
			return nil, err
		}
		plan.Right = right
	}
	return plan, nil
}

func term(word string) (string, error) {
	if isOperatorWord(word) {
		return "", fmt.Errorf("operator %q used as a term: %w", word, apperrors.ErrInvalidQuery)
	}
	t, ok := tokenizer.NormalizeTerm(word)
	if !ok {
		return "", fmt.Errorf("term %q is not searchable: %w", word, apperrors.ErrInvalidQuery)
	}
	return t, nil
}

func isKeyword(word, keyword string) bool {
	return strings.ToUpper(word) == keyword
}

func isOperatorWord(word string) bool {
	switch strings.ToUpper(word) {
	case "AND", "OR", "NOT":
		return true
	}
	return false
}
