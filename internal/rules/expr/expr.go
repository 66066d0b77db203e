// Copyright 2024 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package expr is the boolean field-expression evaluator. The grammar
// is small and fully fixed (AND/OR/NOT, parentheses, and a single atom
// form), so it is hand-written rather than built on a general-purpose
// expression or math library.
package expr

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-logr/logr"

	"github.com/lareferencia/lrvalidate/internal/rules"
)

// Node is a parsed expression: an atom or a boolean combinator.
type Node interface {
	eval(ctx *evalContext) bool
}

// FieldSource fetches a field's occurrences for atom evaluation.
type FieldSource func(path string) []string

// evalContext is threaded through Eval so atoms can fetch field
// occurrences and collapse them via the rule's quantifier.
type evalContext struct {
	quantifier rules.Quantifier
	fields     FieldSource
	log        logr.Logger
}

// Eval evaluates node against fields, collapsing each atom's
// occurrences using quantifier — "the same quantifier table" the
// field-content validators use.
func Eval(node Node, quantifier rules.Quantifier, fields FieldSource, log logr.Logger) bool {
	return node.eval(&evalContext{quantifier: quantifier, fields: fields, log: log})
}

// op is an atom's per-occurrence comparison.
type op int

const (
	opEquals op = iota
	opMatches
)

type atomNode struct {
	field   string
	kind    op
	literal string

	re       *regexp.Regexp
	badRegex bool
}

func (a *atomNode) eval(ctx *evalContext) bool {
	if a.kind == opMatches && a.badRegex {
		// "Regex errors are caught and treated as a rule-wide
		// failure, logged but not fatal".
		if ctx.log.GetSink() != nil {
			ctx.log.Info("expression atom has an invalid regex literal, evaluating to false", "field", a.field, "literal", a.literal)
		}
		return false
	}

	occurrences := ctx.fields(a.field)
	valid, _ := rules.EvaluateOccurrences(occurrences, ctx.quantifier, a.matches)
	return valid
}

func (a *atomNode) matches(value string) (bool, string) {
	switch a.kind {
	case opEquals:
		return value == a.literal, rules.Truncate(value)
	case opMatches:
		return a.re.MatchString(value), rules.Truncate(value)
	default:
		return false, rules.Truncate(value)
	}
}

type notNode struct{ x Node }

func (n *notNode) eval(ctx *evalContext) bool { return !n.x.eval(ctx) }

type andNode struct{ left, right Node }

func (n *andNode) eval(ctx *evalContext) bool { return n.left.eval(ctx) && n.right.eval(ctx) }

type orNode struct{ left, right Node }

func (n *orNode) eval(ctx *evalContext) bool { return n.left.eval(ctx) || n.right.eval(ctx) }

// Parse compiles expression into a Node: parenthesized boolean
// expressions of atoms `<field>(==|=%)'<literal>'` combined with
// AND/OR/NOT.
func Parse(expression string) (Node, error) {
	toks, err := tokenize(expression)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("expr: unexpected trailing input at token %d", p.pos)
	}
	return node, nil
}

type tokenKind int

const (
	tokLParen tokenKind = iota
	tokRParen
	tokAnd
	tokOr
	tokNot
	tokAtom
)

type token struct {
	kind tokenKind
	atom *atomNode
}

func tokenize(s string) ([]token, error) {
	runes := []rune(s)
	var toks []token
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case matchKeyword(runes[i:], "AND"):
			toks = append(toks, token{kind: tokAnd})
			i += 3
		case matchKeyword(runes[i:], "OR"):
			toks = append(toks, token{kind: tokOr})
			i += 2
		case matchKeyword(runes[i:], "NOT"):
			toks = append(toks, token{kind: tokNot})
			i += 3
		default:
			a, next, err := parseAtom(runes, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokAtom, atom: a})
			i = next
		}
	}
	return toks, nil
}

// matchKeyword reports whether rs starts with kw followed by a word
// boundary (so a field literally named "ORCID" does not tokenize as
// the OR keyword).
func matchKeyword(rs []rune, kw string) bool {
	kwr := []rune(kw)
	if len(rs) < len(kwr) {
		return false
	}
	for i, r := range kwr {
		if rs[i] != r {
			return false
		}
	}
	if len(rs) > len(kwr) {
		next := rs[len(kwr)]
		if !unicode.IsSpace(next) && next != '(' && next != ')' {
			return false
		}
	}
	return true
}

func parseAtom(runes []rune, i int) (*atomNode, int, error) {
	start := i
	for i < len(runes) && runes[i] != '=' {
		i++
	}
	if i >= len(runes) {
		return nil, 0, fmt.Errorf("expr: unexpected end of input parsing field name")
	}
	field := strings.TrimSpace(string(runes[start:i]))
	if field == "" {
		return nil, 0, fmt.Errorf("expr: empty field name at offset %d", start)
	}

	var kind op
	switch {
	case i+1 < len(runes) && runes[i+1] == '=':
		kind = opEquals
		i += 2
	case i+1 < len(runes) && runes[i+1] == '%':
		kind = opMatches
		i += 2
	default:
		return nil, 0, fmt.Errorf("expr: invalid operator at offset %d", i)
	}

	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	if i >= len(runes) || runes[i] != '\'' {
		return nil, 0, fmt.Errorf("expr: expected quoted literal at offset %d", i)
	}
	i++
	litStart := i
	for i < len(runes) && runes[i] != '\'' {
		i++
	}
	if i >= len(runes) {
		return nil, 0, fmt.Errorf("expr: unterminated literal starting at offset %d", litStart)
	}
	literal := string(runes[litStart:i])
	i++

	a := &atomNode{field: field, kind: kind, literal: literal}
	if kind == opMatches {
		re, err := regexp.Compile(literal)
		if err != nil {
			a.badRegex = true
		} else {
			a.re = re
		}
	}
	return a, i, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() *token {
	if p.pos < len(p.toks) {
		return &p.toks[p.pos]
	}
	return nil
}

func (p *parser) next() *token {
	t := p.peek()
	if t != nil {
		p.pos++
	}
	return t
}

// parseExpr -> parseOr: OR binds loosest (precedence 1).
func (p *parser) parseExpr() (Node, error) { return p.parseOr() }

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t == nil || t.kind != tokOr {
			return left, nil
		}
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orNode{left: left, right: right}
	}
}

// parseAnd: AND binds tighter than OR (precedence 2).
func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t == nil || t.kind != tokAnd {
			return left, nil
		}
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andNode{left: left, right: right}
	}
}

// parseNot: NOT is unary, right-associative, binds tightest (precedence 3).
func (p *parser) parseNot() (Node, error) {
	t := p.peek()
	if t != nil && t.kind == tokNot {
		p.next()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notNode{x: x}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("expr: unexpected end of input")
	}
	switch t.kind {
	case tokAtom:
		return t.atom, nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing := p.next()
		if closing == nil || closing.kind != tokRParen {
			return nil, fmt.Errorf("expr: expected closing parenthesis")
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("expr: unexpected token")
	}
}
