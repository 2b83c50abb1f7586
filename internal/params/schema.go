package params

import "sort"

// Kind is the primitive type a schema key expects.
type Kind int

const (
	Integer Kind = iota
	Real
	StringList
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case StringList:
		return "list"
	default:
		return "unknown"
	}
}

// GenresKey is the only multi-value key.
const GenresKey = "genres"

var (
	integerFeatures = []string{"duration_ms", "key", "mode", "popularity", "time_signature"}
	realFeatures    = []string{
		"acousticness", "danceability", "energy", "instrumentalness",
		"liveness", "loudness", "speechiness", "tempo", "valence",
	}
)

var schema = buildSchema()

func buildSchema() map[string]Kind {
	s := map[string]Kind{GenresKey: StringList}
	for _, prefix := range []string{"min_", "max_", "target_"} {
		for _, f := range integerFeatures {
			s[prefix+f] = Integer
		}
		for _, f := range realFeatures {
			s[prefix+f] = Real
		}
	}
	return s
}

// Lookup returns the kind expected for key and whether key is recognized.
func Lookup(key string) (Kind, bool) {
	k, ok := schema[key]
	return k, ok
}

// Keys returns every recognized key in lexical order.
func Keys() []string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
