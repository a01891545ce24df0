// Copyright 2024 The Mewa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lexer implements the regex-driven, longest-match lexer shared by
// the grammar compiler and every language built with it: a Lexer holds the
// named lexeme patterns, keyword lexemes and comment definitions; a Scanner
// walks one source string and reports its current line.
package lexer

import (
	"regexp"
	"strings"

	"github.com/mewalang/mewa/errors"
)

// regexEscapeChars are the characters that stringToRegex must backslash
// to turn a literal keyword into a safe regex.
const regexEscapeChars = `{}[]()*+.-\|?^$`

// LexemDef is one named, regex-backed lexeme definition.
type LexemDef struct {
	name      string
	source    string
	pattern   *regexp.Regexp
	activate  [256]bool
	selectAt  int
	isKeyword bool
}

// NewLexemDef compiles source as a regular expression and computes its
// activation set: the first bytes a source position must start with for
// the pattern to possibly match, used to dispatch candidates in O(1).
func NewLexemDef(name, source string, selectAt int) (LexemDef, error) {
	pattern, err := regexp.Compile("^(?:" + source + ")")
	if err != nil {
		return LexemDef{}, errors.Newf(errors.InvalidRegexInLexer, "%s: %s", source, err)
	}
	def := LexemDef{name: name, source: source, pattern: pattern, selectAt: selectAt}
	achrs, aerr := activationCharacters(source)
	if aerr != nil {
		return LexemDef{}, aerr
	}
	for i := 0; i < len(achrs); i++ {
		def.activate[achrs[i]] = true
	}
	return def, nil
}

// Name returns the lexeme's declared name.
func (d LexemDef) Name() string { return d.name }

// Match attempts the lexeme's pattern at the start of src, returning the
// matched sub-group selected at construction and its total matched length.
// ok is false when the pattern does not match at all, or matches but has
// no sub-group at the requested index.
func (d LexemDef) Match(src string) (value string, length int, ok bool) {
	loc := d.pattern.FindStringSubmatchIndex(src)
	if loc == nil {
		return "", 0, false
	}
	idx := 2 * d.selectAt
	if idx+1 >= len(loc) || loc[idx] < 0 {
		return "", 0, false
	}
	return src[loc[idx]:loc[idx+1]], loc[1], true
}

// stringToRegex escapes opr so it can be used as a regex matching itself
// literally; used to turn a quoted keyword into a lexeme pattern.
func stringToRegex(opr string) string {
	var b strings.Builder
	for _, ch := range opr {
		if strings.ContainsRune(regexEscapeChars, ch) {
			b.WriteByte('\\')
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// Lexem is one scanned token: Name is the lexeme definition's name (empty
// for an end-of-input lexem), Value the matched text (the regex sub-group
// selected by the definition; the whole match by default), Line the 1-based
// source line it started on.
type Lexem struct {
	Name  string
	Value string
	Line  int
}

// Empty reports whether l represents end of input.
func (l Lexem) Empty() bool { return l.Name == "" && l.Value == "" }

// Scanner walks one source string, tracking the current byte offset and
// line number.
type Scanner struct {
	filename string
	src      string
	pos      int
	line     int
}

// NewScanner creates a Scanner positioned at the start of src.
func NewScanner(filename, src string) *Scanner {
	return &Scanner{filename: filename, src: src, pos: 0, line: 1}
}

// Filename returns the source name the scanner was constructed with.
func (s *Scanner) Filename() string { return s.filename }

// Line returns the current 1-based line number.
func (s *Scanner) Line() int { return s.line }

// Rest returns the unconsumed remainder of the source from the current
// position, without skipping whitespace.
func (s *Scanner) Rest() string { return s.src[s.pos:] }

// advance moves the scanner forward by incr bytes of src (never
// backwards in practice, but both directions are supported for parity
// with the original cursor arithmetic), tracking line numbers as it
// crosses newlines.
func (s *Scanner) advance(incr int) error {
	pos := s.pos + incr
	if pos < 0 || pos > len(s.src) {
		return errors.New(errors.ArrayBoundReadInLexer)
	}
	for ; incr < 0; incr++ {
		s.pos--
		if s.src[s.pos] == '\n' {
			s.line--
		}
	}
	for ; incr > 0; incr-- {
		if s.src[s.pos] == '\n' {
			s.line++
		}
		s.pos++
	}
	return nil
}

// skipSpaces advances past any run of ASCII whitespace (<= 0x20),
// tracking line numbers.
func (s *Scanner) skipSpaces() {
	for s.pos < len(s.src) && s.src[s.pos] <= 32 {
		if s.src[s.pos] == '\n' {
			s.line++
		}
		s.pos++
	}
}

// Next advances by incr bytes, skips the whitespace that follows, and
// returns the source from the new position onward (empty at end of
// input).
func (s *Scanner) Next(incr int) (string, error) {
	if err := s.advance(incr); err != nil {
		return "", err
	}
	s.skipSpaces()
	return s.src[s.pos:], nil
}

// Scan advances past the next occurrence of str (inclusive), reporting
// whether str was found.
func (s *Scanner) Scan(str string) (bool, error) {
	idx := strings.Index(s.src[s.pos:], str)
	if idx < 0 {
		return false, nil
	}
	if _, err := s.Next(idx + len(str)); err != nil {
		return false, err
	}
	return true, nil
}

// Match reports whether str occurs literally at the current position,
// consuming it (and tracking newlines within it) if so.
func (s *Scanner) Match(str string) bool {
	rest := s.src[s.pos:]
	if !strings.HasPrefix(rest, str) {
		return false
	}
	s.pos += len(str)
	s.line += strings.Count(str, "\n")
	return true
}

type bracketCommentDef struct {
	start string
	end   string
}

// entry kinds stored per activation byte in Lexer.firstmap.
type entryKind int

const (
	entryLexem entryKind = iota
	entryEolnComment
	entryBracketComment
	entryIgnore
)

type firstEntry struct {
	kind entryKind
	idx  int
}

// Lexer holds the lexeme, keyword and comment definitions for one
// language: it dispatches a source position to the longest matching
// definition.
type Lexer struct {
	errorLexemName string
	defs           []LexemDef
	firstmap       map[byte][]firstEntry
	bracketDefs    []bracketCommentDef
	eolnDefs       []string
	ignoreDefs     []LexemDef
}

// New creates an empty Lexer; the error lexeme defaults to "?" as in the
// reference implementation.
func New() *Lexer {
	return &Lexer{errorLexemName: "?", firstmap: make(map[byte][]firstEntry)}
}

// DefineBadLexem sets the name reported for a byte that activates no
// defined lexeme.
func (l *Lexer) DefineBadLexem(name string) {
	l.errorLexemName = name
}

// ErrorName returns the lexeme name reported for an unrecognized byte.
func (l *Lexer) ErrorName() string { return l.errorLexemName }

// Lookup returns the 1-based definition index of name (a lexeme or
// keyword name), or 0 if no such lexeme has been defined.
func (l *Lexer) Lookup(name string) int {
	for i, def := range l.defs {
		if def.name == name {
			return i + 1
		}
	}
	return 0
}

// DefineLexem declares a named, pattern-backed lexeme. selectAt chooses
// which regex sub-group becomes the lexeme's value (0 is the whole
// match).
func (l *Lexer) DefineLexem(name, pattern string, selectAt int) error {
	def, err := NewLexemDef(name, pattern, selectAt)
	if err != nil {
		return err
	}
	idx := len(l.defs)
	l.defs = append(l.defs, def)
	firstChars := 0
	for ch := 0; ch < 256; ch++ {
		if def.activate[ch] {
			l.firstmap[byte(ch)] = append(l.firstmap[byte(ch)], firstEntry{entryLexem, idx})
			firstChars++
		}
	}
	if firstChars == 0 {
		l.defs = l.defs[:idx]
		return errors.New(errors.SyntaxErrorInLexer)
	}
	return nil
}

// DefineKeyword declares opr as a lazily discovered keyword lexeme: its
// own literal text is both its name and its pattern. Keyword lexemes
// carry no independent value (the matched text is always opr itself),
// which the driver uses to decide whether a shifted token contributes a
// host value (§4.5).
func (l *Lexer) DefineKeyword(opr string) error {
	if err := l.DefineLexem(opr, stringToRegex(opr), 0); err != nil {
		return err
	}
	l.defs[len(l.defs)-1].isKeyword = true
	return nil
}

// IsKeyword reports whether the 1-based definition index id (as
// returned by Lookup) names a keyword lexeme rather than a
// pattern-backed named token.
func (l *Lexer) IsKeyword(id int) bool {
	if id < 1 || id > len(l.defs) {
		return false
	}
	return l.defs[id-1].isKeyword
}

// DefineEolnComment declares opr as the marker starting an end-of-line
// comment.
func (l *Lexer) DefineEolnComment(opr string) error {
	if opr == "" {
		return errors.New(errors.SyntaxErrorInLexer)
	}
	idx := len(l.eolnDefs)
	l.eolnDefs = append(l.eolnDefs, opr)
	l.firstmap[opr[0]] = append(l.firstmap[opr[0]], firstEntry{entryEolnComment, idx})
	return nil
}

// DefineBracketComment declares a start/end bracket comment pair.
func (l *Lexer) DefineBracketComment(start, end string) error {
	if start == "" || end == "" {
		return errors.New(errors.SyntaxErrorInLexer)
	}
	idx := len(l.bracketDefs)
	l.bracketDefs = append(l.bracketDefs, bracketCommentDef{start, end})
	l.firstmap[start[0]] = append(l.firstmap[start[0]], firstEntry{entryBracketComment, idx})
	return nil
}

// DefineIgnore declares pattern as text to be silently skipped wherever
// it occurs between tokens, the same way a comment is, but matched like
// any other lexeme rather than bounded by a fixed start/end marker
// (§4.3's `%IGNORE` directive).
func (l *Lexer) DefineIgnore(pattern string) error {
	def, err := NewLexemDef("", pattern, 0)
	if err != nil {
		return err
	}
	idx := len(l.ignoreDefs)
	l.ignoreDefs = append(l.ignoreDefs, def)
	firstChars := 0
	for ch := 0; ch < 256; ch++ {
		if def.activate[ch] {
			l.firstmap[byte(ch)] = append(l.firstmap[byte(ch)], firstEntry{entryIgnore, idx})
			firstChars++
		}
	}
	if firstChars == 0 {
		l.ignoreDefs = l.ignoreDefs[:idx]
		return errors.New(errors.SyntaxErrorInLexer)
	}
	return nil
}

// IgnorePatterns returns the source patterns declared via DefineIgnore,
// in declaration order.
func (l *Lexer) IgnorePatterns() []string {
	out := make([]string, len(l.ignoreDefs))
	for i, d := range l.ignoreDefs {
		out[i] = d.source
	}
	return out
}

func (l *Lexer) matchIgnore(scanner *Scanner) (bool, error) {
	rest := scanner.Rest()
	if rest == "" {
		return false, nil
	}
	maxlen := 0
	for _, e := range l.firstmap[rest[0]] {
		if e.kind != entryIgnore {
			continue
		}
		if _, length, ok := l.ignoreDefs[e.idx].Match(rest); ok && length > maxlen {
			maxlen = length
		}
	}
	if maxlen == 0 {
		return false, nil
	}
	if _, err := scanner.Next(maxlen); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Lexer) matchEolnComment(scanner *Scanner) (bool, error) {
	for _, opr := range l.eolnDefs {
		if scanner.Match(opr) {
			if _, err := scanner.Scan("\n"); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (l *Lexer) matchBracketCommentStart(scanner *Scanner) (int, error) {
	for idx, def := range l.bracketDefs {
		if scanner.Match(def.start) {
			if _, err := scanner.Scan(def.end); err != nil {
				return -1, err
			}
			return idx, nil
		}
	}
	return -1, nil
}

// Next scans the next lexeme from scanner, skipping leading whitespace
// and comments. It returns the empty Lexem at end of input, and the
// error lexeme (named via DefineBadLexem) for a byte that activates no
// definition.
func (l *Lexer) Next(scanner *Scanner) (Lexem, error) {
	rest, err := scanner.Next(0)
	if err != nil {
		return Lexem{}, err
	}
	for rest != "" {
		consumedComment, err := l.consumeComment(scanner)
		if err != nil {
			return Lexem{}, err
		}
		if !consumedComment {
			break
		}
		rest, err = scanner.Next(0)
		if err != nil {
			return Lexem{}, err
		}
	}
	if rest == "" {
		return Lexem{Line: scanner.Line()}, nil
	}

	entries := l.firstmap[rest[0]]
	maxlen := 0
	matchidx := -1
	var value string
	for _, e := range entries {
		if e.kind != entryLexem {
			continue
		}
		v, length, ok := l.defs[e.idx].Match(rest)
		if ok && length > maxlen {
			maxlen = length
			matchidx = e.idx
			value = v
		}
	}

	line := scanner.Line()
	if matchidx < 0 {
		chrstr := firstRuneString(rest)
		if _, err := scanner.Next(len(chrstr)); err != nil {
			return Lexem{}, err
		}
		return Lexem{Name: l.errorLexemName, Value: chrstr, Line: line}, nil
	}
	if _, err := scanner.Next(maxlen); err != nil {
		return Lexem{}, err
	}
	return Lexem{Name: l.defs[matchidx].name, Value: value, Line: line}, nil
}

// consumeComment matches at most one leading eoln comment, bracket
// comment or ignore pattern at the scanner's current position, reporting
// whether it consumed one.
func (l *Lexer) consumeComment(scanner *Scanner) (bool, error) {
	rest := scanner.Rest()
	if rest == "" {
		return false, nil
	}
	sawIgnore := false
	for _, e := range l.firstmap[rest[0]] {
		switch e.kind {
		case entryEolnComment:
			ok, err := l.matchEolnComment(scanner)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		case entryBracketComment:
			idx, err := l.matchBracketCommentStart(scanner)
			if err != nil {
				return false, err
			}
			if idx >= 0 {
				return true, nil
			}
		case entryIgnore:
			sawIgnore = true
		}
	}
	if sawIgnore {
		return l.matchIgnore(scanner)
	}
	return false, nil
}

func firstRuneString(s string) string {
	for i := range s {
		if i > 0 {
			return s[:i]
		}
	}
	return s
}
