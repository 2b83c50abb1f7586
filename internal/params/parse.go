package params

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NotAvailable is the placeholder the model writes for attributes it has no opinion on.
const NotAvailable = "N/A"

// Reason explains why a line did not make it into a [Set].
type Reason string

const (
	ReasonNoColon        Reason = "no colon"
	ReasonEmptyValue     Reason = "empty value"
	ReasonNotAvailable   Reason = "value is N/A"
	ReasonUnknownKey     Reason = "unknown key"
	ReasonInvalidInteger Reason = "not a whole number"
	ReasonInvalidReal    Reason = "not a finite number"
)

// Diagnostic describes one skipped line. Line is 1-based.
type Diagnostic struct {
	Line   int    `json:"line"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	Reason Reason `json:"reason"`
}

// Parse converts model output into a [Set]. It never fails; the worst case is an empty set.
func Parse(text string) Set {
	set, _ := Inspect(text)
	return set
}

// Inspect parses text like [Parse] and also returns a diagnostic for every non-blank line it skipped.
func Inspect(text string) (Set, []Diagnostic) {
	set := Set{}
	var diags []Diagnostic

	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		rawKey, rawValue, found := strings.Cut(line, ":")
		key, value := strings.TrimSpace(rawKey), strings.TrimSpace(rawValue)

		skip := func(r Reason) {
			diags = append(diags, Diagnostic{Line: i + 1, Key: key, Value: value, Reason: r})
		}

		if !found {
			skip(ReasonNoColon)
			continue
		}
		if value == "" {
			skip(ReasonEmptyValue)
			continue
		}
		if value == NotAvailable {
			skip(ReasonNotAvailable)
			continue
		}

		kind, ok := Lookup(key)
		if !ok {
			skip(ReasonUnknownKey)
			continue
		}

		switch kind {
		case StringList:
			set[key] = Value{Kind: kind, Items: splitList(value)}
		case Integer:
			if !isWholeNumber(value) {
				skip(ReasonInvalidInteger)
				continue
			}
			set[key] = Value{Kind: kind, Raw: value}
		case Real:
			if !isFiniteNumber(value) {
				skip(ReasonInvalidReal)
				continue
			}
			set[key] = Value{Kind: kind, Raw: value}
		}
	}

	return set, diags
}

func splitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// decimal is the plain base-10 grammar. strconv also takes hex floats and digit underscores.
var decimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// isWholeNumber accepts base-10 integers and finite floats with no fractional part ("140.0").
func isWholeNumber(s string) bool {
	if !decimal.MatchString(s) {
		return false
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return f == math.Trunc(f)
}

func isFiniteNumber(s string) bool {
	if !decimal.MatchString(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
