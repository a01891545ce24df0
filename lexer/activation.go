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

package lexer

import (
	"strings"

	"github.com/mewalang/mewa/errors"
)

// parseFirstChar reads one literal (non-regex-special) byte from the
// head of an activation-character sub-expression, unescaping the small
// set of characters a lexeme pattern is allowed to escape. Bytes above
// ASCII are accepted as-is (taken as one byte of a multi-byte UTF-8
// lexeme such as a non-Latin keyword); only control bytes and spaces
// are rejected.
func parseFirstChar(src string, i int) (byte, int, error) {
	ch := src[i]
	if ch <= 32 {
		return 0, 0, errors.Newf(errors.IllegalFirstCharacterInLexer, "%q", src[i:])
	}
	if ch == '\\' {
		i++
		if i >= len(src) {
			return 0, 0, errors.New(errors.SyntaxErrorInLexer)
		}
		if strings.IndexByte(regexEscapeChars, src[i]) >= 0 {
			return src[i], i + 1, nil
		}
		return 0, 0, errors.Newf(errors.IllegalFirstCharacterInLexer, "\\%c", src[i])
	}
	return ch, i + 1, nil
}

// extractFirstCharacters reads a `[...]` charset body (src positioned
// just after the opening bracket) up to but not including the closing
// byte eb, expanding `a-z` ranges, and appends the characters it finds
// to res. It returns the position just past eb and whether any
// character was found.
func extractFirstCharacters(res *strings.Builder, src string, i int, eb byte) (int, bool, error) {
	empty := true
	var last byte
	for i < len(src) && src[i] != eb {
		if src[i] == '-' && !empty {
			i++
			if i >= len(src) || src[i] == eb {
				res.WriteByte(last)
				break
			}
			to, next, err := parseFirstChar(src, i)
			if err != nil {
				return 0, false, err
			}
			i = next
			from := last
			if to < from {
				from, to = to, from
			}
			for c := from; c <= to; c++ {
				res.WriteByte(c)
			}
			last = to
		} else {
			ch, next, err := parseFirstChar(src, i)
			if err != nil {
				return 0, false, err
			}
			res.WriteByte(ch)
			last = ch
			i = next
		}
		empty = false
	}
	if i >= len(src) {
		return 0, false, errors.New(errors.SyntaxErrorInLexer)
	}
	return i + 1, !empty, nil
}

// skipBrackets skips a balanced bracket group starting at the opening
// byte src[i], returning the position just past its matching eb and
// whether the group was non-empty.
func skipBrackets(src string, i int, eb byte) (int, bool, error) {
	sb := src[i]
	i++
	cnt := 1
	empty := true
	for i < len(src) && cnt > 0 {
		switch src[i] {
		case eb:
			cnt--
		case sb:
			cnt++
		}
		i++
		empty = false
	}
	if cnt > 0 {
		return 0, false, errors.New(errors.SyntaxErrorInLexer)
	}
	return i, !empty, nil
}

// inverseCharset returns every printable ASCII byte (33..127) not in
// charset, used for `[^...]` negated charsets.
func inverseCharset(charset string) string {
	var present [128]bool
	for i := 0; i < len(charset); i++ {
		if charset[i] < 128 {
			present[charset[i]] = true
		}
	}
	var b strings.Builder
	for c := 33; c < 128; c++ {
		if !present[c] {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}

// activationCharacters computes the set of bytes a source position must
// start with for the regex source to possibly match: the first
// character(s) reachable in every top-level alternative, descending
// into `[...]` charsets and `(...)` groups, stopping at the first
// alternative branch that cannot match empty.
func activationCharacters(source string) (string, error) {
	var rt strings.Builder
	i := 0
	if i < len(source) && source[i] == '^' {
		i++
	}
	for {
		if i >= len(source) {
			return rt.String(), nil
		}
		switch source[i] {
		case '[':
			i++
			inverse := false
			if i < len(source) && source[i] == '^' {
				inverse = true
				i++
			}
			var chars strings.Builder
			next, nonEmpty, err := extractFirstCharacters(&chars, source, i, ']')
			if err != nil {
				return "", err
			}
			i = next
			set := chars.String()
			if inverse {
				set = inverseCharset(set)
			}
			rt.WriteString(set)
			if !nonEmpty {
				rest, err := activationCharacters(source[i:])
				if err != nil {
					return "", err
				}
				rt.WriteString(rest)
			}
			return rt.String(), nil
		case '(':
			for {
				start := i + 1
				next, nonEmpty, err := skipBrackets(source, i, ')')
				if err != nil {
					return "", err
				}
				i = next
				branch, err := activationCharacters(source[start : i-1])
				if err != nil {
					return "", err
				}
				rt.WriteString(branch)
				if !nonEmpty || i >= len(source) || source[i] != '|' {
					break
				}
				i++
			}
			return rt.String(), nil
		default:
			ch, _, err := parseFirstChar(source, i)
			if err != nil {
				return "", err
			}
			rt.WriteByte(ch)
			return rt.String(), nil
		}
	}
}
