package params

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
)

// Value is one accepted entry: Raw for numeric kinds, Items for [StringList].
type Value struct {
	Kind  Kind
	Raw   string
	Items []string
}

// String renders the value as it goes over the wire.
func (v Value) String() string {
	if v.Kind == StringList {
		return strings.Join(v.Items, ",")
	}
	return v.Raw
}

// MarshalJSON encodes numeric values as their raw text and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Kind == StringList {
		return json.Marshal(v.Items)
	}
	return json.Marshal(v.Raw)
}

// Set is a validated subset of the schema, keyed by schema key.
type Set map[string]Value

// Len returns the number of accepted keys.
func (s Set) Len() int { return len(s) }

// Get returns the value stored under key.
func (s Set) Get(key string) (Value, bool) {
	v, ok := s[key]
	return v, ok
}

// Genres returns the genre list, or nil when the model named none.
func (s Set) Genres() []string {
	if v, ok := s[GenresKey]; ok {
		return v.Items
	}
	return nil
}

// Clone returns a deep copy of the set, genre lists included.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		v.Items = slices.Clone(v.Items)
		out[k] = v
	}
	return out
}

// Keys returns the present keys in lexical order.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Query converts the set into request parameters; genre lists are joined by commas.
func (s Set) Query() url.Values {
	q := url.Values{}
	for k, v := range s {
		q.Set(k, v.String())
	}
	return q
}

// Strings flattens the set into key → wire string, which is how runs are stored.
func (s Set) Strings() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v.String()
	}
	return out
}

// FromStrings rebuilds a set from [Set.Strings] output, re-validating every entry.
func FromStrings(m map[string]string) Set {
	var b strings.Builder
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(&b, "%s: %s\n", k, m[k])
	}
	return Parse(b.String())
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
