// Package intent turns free text into a classified todo action using a fixed,
// ordered rule table.
package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// DefaultMinLength is the rune count a message must exceed before unmatched
// text falls back to an add.
const DefaultMinLength = 3

// Action is the classified intent of a message.
type Action string

const (
	ActionAdd      Action = "add"
	ActionComplete Action = "complete"
	ActionList     Action = "list"
	ActionHelp     Action = "help"
	ActionUnknown  Action = "unknown"
)

// Reason explains an ActionUnknown result.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonParseFailure Reason = "parse_failure"
	ReasonTooShort     Reason = "too_short"
)

// Intent is the result of classifying one message.
type Intent struct {
	Action      Action
	ID          int    // set for ActionComplete
	Description string // set for ActionAdd
	Reason      Reason // set for ActionUnknown
	Fallback    bool   // ActionAdd produced by the length fallback rather than a rule
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Classifier evaluates rules first-match-wins.
type Classifier struct {
	rules     []compiledRule
	minLength int
}

// New compiles rules into a Classifier. When rules is empty DefaultRules is
// used. minLength <= 0 uses DefaultMinLength.
func New(minLength int, rules ...Rule) (*Classifier, error) {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	c := &Classifier{minLength: minLength}
	for i, r := range rules {
		re, err := regexp.Compile(`(?is)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Action, err)
		}
		c.rules = append(c.rules, compiledRule{Rule: r, re: re})
	}

	return c, nil
}

// Default returns a Classifier using DefaultRules and DefaultMinLength.
func Default() *Classifier {
	c, err := New(DefaultMinLength)
	if err != nil {
		panic(err)
	}
	return c
}

// MinLength returns the fallback threshold in runes.
func (c *Classifier) MinLength() int {
	return c.minLength
}

// Normalize applies NFC normalization and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// Classify maps text to an Intent. It never fails: text with no actionable
// pattern yields ActionUnknown.
func (c *Classifier) Classify(text string) Intent {
	normalized := Normalize(text)

	for _, r := range c.rules {
		m := r.re.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}

		capture := ""
		if len(m) > 1 {
			capture = strings.TrimSpace(m[1])
		}

		switch r.Payload {
		case PayloadID:
			id, ok := parseID(capture)
			if !ok {
				return Intent{Action: ActionUnknown, Reason: ReasonParseFailure}
			}
			return Intent{Action: r.Action, ID: id}
		case PayloadText:
			if capture == "" {
				continue
			}
			return Intent{Action: r.Action, Description: capture}
		default:
			return Intent{Action: r.Action}
		}
	}

	if utf8.RuneCountInString(normalized) > c.minLength {
		return Intent{Action: ActionAdd, Description: normalized, Fallback: true}
	}

	return Intent{Action: ActionUnknown, Reason: ReasonTooShort}
}

// parseID reads a positive integer from the first token of s.
func parseID(s string) (int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	tok := strings.TrimRight(strings.TrimPrefix(fields[0], "#"), ".,!?")
	id, err := strconv.Atoi(tok)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
