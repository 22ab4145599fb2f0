// Package loader turns a raw candidate payload into a parsed JSON value, or a
// classified reason why it could not.
//
// The checks run in a fixed order: strip one leading byte order mark and trim
// whitespace, reject empty input, reject input above the character ceiling,
// reject text that is not shaped like an object or array, and only then parse.
// Load never panics; every outcome is reported through Result.
package loader

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jvx/pkg/jsonvalue"
)

// DefaultMaxChars is the default input ceiling, in characters.
const DefaultMaxChars = 10 * 1024 * 1024

const bom = '\uFEFF'

// Status classifies the outcome of a load.
type Status int

const (
	StatusOK Status = iota
	StatusEmpty
	StatusTooLarge
	StatusShapeRejected
	StatusParseError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusTooLarge:
		return "too-large"
	case StatusShapeRejected:
		return "shape-rejected"
	case StatusParseError:
		return "parse-error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Sentinel errors, one per rejection status.
var (
	ErrEmpty    = errors.New("empty input")
	ErrTooLarge = errors.New("input exceeds size limit")
	ErrShape    = errors.New("input is not a JSON object or array")
	ErrParse    = errors.New("input is not valid JSON")
)

// LoadError is returned by Result.Err for every non-OK status.
type LoadError struct {
	Kind    Status
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Message == "" {
		return e.sentinel().Error()
	}
	return fmt.Sprintf("%s: %s", e.sentinel(), e.Message)
}

// Unwrap exposes the underlying parser error, if any.
func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to Kind.
func (e *LoadError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *LoadError) sentinel() error {
	switch e.Kind {
	case StatusEmpty:
		return ErrEmpty
	case StatusTooLarge:
		return ErrTooLarge
	case StatusShapeRejected:
		return ErrShape
	default:
		return ErrParse
	}
}

// Check is the outcome of the cheap pre-parse checks.
type Check struct {
	Status Status
	Text   string // trimmed input
	Length int    // characters in Text
}

// Result is the outcome of Load.
type Result struct {
	Status  Status
	Value   jsonvalue.Value
	Text    string
	Length  int
	Message string
	err     error
}

// OK reports whether the payload parsed.
func (r Result) OK() bool { return r.Status == StatusOK }

// Err returns nil for StatusOK and a *LoadError otherwise.
func (r Result) Err() error {
	if r.Status == StatusOK {
		return nil
	}
	return &LoadError{Kind: r.Status, Message: r.Message, Err: r.err}
}

// Trim strips one leading byte order mark and surrounding whitespace.
func Trim(raw string) string {
	raw = strings.TrimPrefix(raw, string(bom))
	return strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == bom
	})
}

// Precheck runs every check except the parse itself. A maxChars of zero or
// less selects DefaultMaxChars.
func Precheck(raw string, maxChars int) Check {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	text := Trim(raw)
	if text == "" {
		return Check{Status: StatusEmpty}
	}
	n := utf8.RuneCountInString(text)
	c := Check{Text: text, Length: n}
	switch {
	case n > maxChars:
		c.Status = StatusTooLarge
	case !HasContainerShape(text):
		c.Status = StatusShapeRejected
	default:
		c.Status = StatusOK
	}
	return c
}

// HasContainerShape reports whether trimmed text starts with { or [ and ends
// with the matching closer.
func HasContainerShape(text string) bool {
	if text == "" {
		return false
	}
	first, last := text[0], text[len(text)-1]
	return (first == '{' && last == '}') || (first == '[' && last == ']')
}

// Load prechecks and parses raw using maxChars as the ceiling.
func Load(raw string, maxChars int) Result {
	return LoadWithLogger(raw, maxChars, logr.Discard())
}

// LoadWithLogger is like Load but records the classification on lgr.
func LoadWithLogger(raw string, maxChars int, lgr logr.Logger) Result {
	c := Precheck(raw, maxChars)
	res := Result{Status: c.Status, Text: c.Text, Length: c.Length}
	switch c.Status {
	case StatusEmpty:
		res.Message = "no input"
	case StatusTooLarge:
		res.Message = fmt.Sprintf("input too large (%d characters)", c.Length)
	case StatusShapeRejected:
		res.Message = "must start with { or [ and end with } or ]"
	case StatusOK:
		v, err := jsonvalue.Parse(c.Text)
		if err != nil {
			res.Status = StatusParseError
			res.err = err
			var se *jsonvalue.SyntaxError
			if errors.As(err, &se) {
				res.Message = se.Msg
			} else {
				res.Message = err.Error()
			}
		} else {
			res.Value = v
		}
	}
	lgr.V(1).Info("loaded payload", "status", res.Status.String(), "length", res.Length)
	return res
}
