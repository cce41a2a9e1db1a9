package kb

import (
	"errors"
	"fmt"
	"strings"
)

type argKind int

const (
	quoted argKind = iota
	atom
)

type term struct {
	kind argKind
	text string
}

type statement struct {
	name string
	args []term
}

// predicates lists the accepted fact shapes by name.
var predicates = map[string][]argKind{
	"drug":             {quoted, atom},
	"interaction":      {quoted, quoted, atom},
	"contraindicated":  {quoted, atom},
	"food_interaction": {quoted, atom, atom},
	"food_note":        {quoted, quoted},
	"drug_class":       {quoted, atom},
}

var errSkip = errors.New("skip")

// parseStatement parses one line of a fact file. Blank and comment lines
// return errSkip.
func parseStatement(line string) (statement, error) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "%") {
		return statement{}, errSkip
	}

	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return statement{}, fmt.Errorf("expected predicate(args). got %q", s)
	}
	name := strings.TrimSpace(s[:open])
	if !IsAtom(name) {
		return statement{}, fmt.Errorf("invalid predicate name %q", name)
	}
	shape, ok := predicates[name]
	if !ok {
		return statement{}, fmt.Errorf("unknown predicate %q", name)
	}

	args, rest, err := parseArgs(s[open+1:])
	if err != nil {
		return statement{}, fmt.Errorf("%s: %w", name, err)
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ".") {
		return statement{}, fmt.Errorf("%s: missing terminating period", name)
	}
	if tail := strings.TrimSpace(rest[1:]); tail != "" && !strings.HasPrefix(tail, "%") {
		return statement{}, fmt.Errorf("%s: unexpected trailing text %q", name, tail)
	}

	if len(args) != len(shape) {
		return statement{}, fmt.Errorf("%s: expected %d arguments, got %d", name, len(shape), len(args))
	}
	for i, want := range shape {
		if args[i].kind != want {
			return statement{}, fmt.Errorf("%s: argument %d must be %s", name, i+1, kindName(want))
		}
		if want == quoted && i == 0 && args[i].text == "" {
			return statement{}, fmt.Errorf("%s: empty drug id", name)
		}
	}

	return statement{name: name, args: args}, nil
}

// parseArgs consumes a comma separated argument list up to the closing
// parenthesis and returns whatever follows it.
func parseArgs(s string) ([]term, string, error) {
	var args []term
	i := 0
	for {
		i = skipBlank(s, i)
		if i >= len(s) {
			return nil, "", errors.New("unterminated argument list")
		}

		var t term
		if s[i] == '\'' {
			end := strings.IndexByte(s[i+1:], '\'')
			if end < 0 {
				return nil, "", errors.New("unterminated quoted string")
			}
			t = term{kind: quoted, text: s[i+1 : i+1+end]}
			i += end + 2
		} else {
			start := i
			for i < len(s) && isAtomRune(rune(s[i])) {
				i++
			}
			if start == i {
				return nil, "", fmt.Errorf("unexpected character %q", s[i])
			}
			t = term{kind: atom, text: s[start:i]}
		}
		args = append(args, t)

		i = skipBlank(s, i)
		if i >= len(s) {
			return nil, "", errors.New("unterminated argument list")
		}
		switch s[i] {
		case ',':
			i++
		case ')':
			return args, s[i+1:], nil
		default:
			return nil, "", fmt.Errorf("unexpected character %q", s[i])
		}
	}
}

func skipBlank(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func kindName(k argKind) string {
	if k == quoted {
		return "a quoted string"
	}
	return "an atom"
}
