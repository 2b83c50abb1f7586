package params

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestSchema(t *testing.T) {
	t.Run("Size", func(t *testing.T) {
		if got := len(Keys()); got != 43 {
			t.Errorf("expected 43 keys, got %d", got)
		}
	})

	t.Run("Kinds", func(t *testing.T) {
		tc := []struct {
			key  string
			want Kind
		}{
			{"min_energy", Real},
			{"target_tempo", Real},
			{"max_loudness", Real},
			{"min_duration_ms", Integer},
			{"target_key", Integer},
			{"max_popularity", Integer},
			{"min_time_signature", Integer},
			{"genres", StringList},
		}

		for _, tt := range tc {
			got, ok := Lookup(tt.key)
			if !ok {
				t.Errorf("%s should be recognized", tt.key)
				continue
			}
			if got != tt.want {
				t.Errorf("%s: expected %v, got %v", tt.key, tt.want, got)
			}
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		for _, key := range []string{"mood", "made_up_key", "energy", "seed_tracks", ""} {
			if _, ok := Lookup(key); ok {
				t.Errorf("%q should not be recognized", key)
			}
		}
	})
}

func TestParse(t *testing.T) {
	t.Run("End To End", func(t *testing.T) {
		set := Parse("min_energy: 0.5\nmax_tempo: 140\ngenres: rock, indie\nmood: happy\n")

		want := map[string]string{
			"min_energy": "0.5",
			"max_tempo":  "140",
			"genres":     "rock,indie",
		}
		if !reflect.DeepEqual(set.Strings(), want) {
			t.Errorf("expected %v, got %v", want, set.Strings())
		}
		if !reflect.DeepEqual(set.Genres(), []string{"rock", "indie"}) {
			t.Errorf("unexpected genres %v", set.Genres())
		}
	})

	t.Run("Genres Are Trimmed", func(t *testing.T) {
		set := Parse("genres: rock, pop , jazz")
		if !reflect.DeepEqual(set.Genres(), []string{"rock", "pop", "jazz"}) {
			t.Errorf("unexpected genres %v", set.Genres())
		}
	})

	t.Run("Empty Genre Segments Dropped", func(t *testing.T) {
		set := Parse("genres: ,rock,, pop,")
		if !reflect.DeepEqual(set.Genres(), []string{"rock", "pop"}) {
			t.Errorf("unexpected genres %v", set.Genres())
		}

		v, ok := Parse("genres: , ,").Get("genres")
		if !ok || len(v.Items) != 0 || v.Items == nil {
			t.Errorf("expected an empty genre list to be stored, got %+v (ok=%v)", v, ok)
		}
		if v.String() != "" {
			t.Errorf("expected empty wire value, got %q", v.String())
		}
	})

	t.Run("Missing Values", func(t *testing.T) {
		for _, in := range []string{"min_energy: N/A", "min_energy:", "min_energy:   ", "min_energy"} {
			if _, ok := Parse(in).Get("min_energy"); ok {
				t.Errorf("%q should produce no entry", in)
			}
		}
	})

	t.Run("Unknown Key", func(t *testing.T) {
		if Parse("made_up_key: 5").Len() != 0 {
			t.Error("expected unrecognized key to be dropped")
		}
	})

	t.Run("Real Kind Accepts Fractions", func(t *testing.T) {
		v, ok := Parse("target_tempo: 120.5").Get("target_tempo")
		if !ok || v.Raw != "120.5" {
			t.Errorf("expected target_tempo 120.5, got %+v (ok=%v)", v, ok)
		}
	})

	t.Run("Real Kind Accepts Decimal Forms", func(t *testing.T) {
		for _, raw := range []string{".5", "5.", "-7.50", "+0.3", "1e-3", "2.5E+2"} {
			v, ok := Parse("min_valence: " + raw).Get("min_valence")
			if !ok || v.Raw != raw {
				t.Errorf("%q should be accepted verbatim, got %+v (ok=%v)", raw, v, ok)
			}
		}
	})

	t.Run("Integer Kind", func(t *testing.T) {
		tc := []struct {
			in   string
			want bool
		}{
			{"target_popularity: 80", true},
			{"target_popularity: -3", true},
			{"target_popularity: 80.0", true},
			{"target_popularity: 80.5", false},
			{"target_popularity: eighty", false},
			{"target_popularity: 12abc", false},
			{"target_popularity: 1e400", false},
			{"target_popularity: 1e2", true},
			{"target_popularity: 0x1p4", false},
			{"target_popularity: 0x10", false},
			{"target_popularity: 1_0", false},
			{"target_popularity: 0b101", false},
		}

		for _, tt := range tc {
			_, ok := Parse(tt.in).Get("target_popularity")
			if ok != tt.want {
				t.Errorf("%q: expected accepted=%v", tt.in, tt.want)
			}
		}
	})

	t.Run("Real Kind Rejects Non Numbers", func(t *testing.T) {
		for _, in := range []string{"min_valence: high", "min_valence: NaN", "min_valence: Inf", "min_valence: 0.5x",
			"min_valence: 0x1p-2", "min_valence: 0X1P-2", "min_valence: 0_5", "min_valence: 1_000.5", "min_valence: +Inf", "min_valence: ."} {
			if Parse(in).Len() != 0 {
				t.Errorf("%q should be rejected", in)
			}
		}
	})

	t.Run("Raw Text Preserved", func(t *testing.T) {
		v, _ := Parse("  min_loudness :   -7.50  ").Get("min_loudness")
		if v.Raw != "-7.50" {
			t.Errorf("expected raw text -7.50, got %q", v.Raw)
		}
	})

	t.Run("Splits On First Colon Only", func(t *testing.T) {
		if Parse("min_energy: 0.5: 0.7").Len() != 0 {
			t.Error("value containing a colon is not a number and must be dropped")
		}
	})

	t.Run("Last Valid Write Wins", func(t *testing.T) {
		set := Parse("min_energy: 0.2\nmin_energy: 0.9\nmin_energy: oops")
		if v, _ := set.Get("min_energy"); v.Raw != "0.9" {
			t.Errorf("expected 0.9, got %q", v.Raw)
		}
	})

	t.Run("Windows Line Endings And Blank Lines", func(t *testing.T) {
		set := Parse("\r\n\r\nmin_energy: 0.4\r\nmax_energy: 0.8\r\n\r\n")
		if set.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", set.Len())
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		if Parse("").Len() != 0 {
			t.Error("expected empty set")
		}
	})
}

// Every accepted entry must satisfy its kind, whatever the input.
func TestParseInvariants(t *testing.T) {
	inputs := []string{
		"min_energy: 0.5\ntarget_key: 7\nmax_mode: 1.5\nmin_tempo: fast",
		"target_duration_ms: 210000\ntarget_duration_ms: 2.1e5\nmax_liveness: .3",
		"genres: a,b\nmin_popularity: 0x10\ntarget_valence: -0\nfoo: 1",
		strings.Repeat("target_energy: 0.1\n", 3) + "max_time_signature: 4.000",
	}

	for _, in := range inputs {
		for key, v := range Parse(in) {
			kind, ok := Lookup(key)
			if !ok {
				t.Errorf("key %q is outside the schema", key)
				continue
			}
			switch kind {
			case Integer:
				f, err := strconv.ParseFloat(v.Raw, 64)
				if err != nil || f != math.Trunc(f) {
					t.Errorf("%s=%q is not a whole number", key, v.Raw)
				}
			case Real:
				f, err := strconv.ParseFloat(v.Raw, 64)
				if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
					t.Errorf("%s=%q is not finite", key, v.Raw)
				}
			case StringList:
				if len(v.Items) == 0 {
					t.Errorf("%s has no items", key)
				}
			}
		}
	}
}

func TestInspect(t *testing.T) {
	text := "Here you go\nmin_energy: N/A\nmood: calm\ntarget_key: 4.5\ntarget_valence: 0.3\n\ngenres: ,\n"
	set, diags := Inspect(text)

	if set.Len() != 2 {
		t.Fatalf("expected 2 accepted entries, got %d", set.Len())
	}
	if g := set.Genres(); g == nil || len(g) != 0 {
		t.Errorf("expected an empty genre list, got %#v", g)
	}

	want := []Reason{ReasonNoColon, ReasonNotAvailable, ReasonUnknownKey, ReasonInvalidInteger}
	if len(diags) != len(want) {
		t.Fatalf("expected %d diagnostics, got %d: %+v", len(want), len(diags), diags)
	}
	for i, d := range diags {
		if d.Reason != want[i] {
			t.Errorf("diagnostic %d: expected %q, got %q", i, want[i], d.Reason)
		}
	}
	if diags[2].Line != 3 || diags[2].Key != "mood" {
		t.Errorf("unexpected diagnostic %+v", diags[2])
	}
}

func TestSet(t *testing.T) {
	set := Parse("genres: rock, indie\nmin_energy: 0.5\ntarget_key: 7")

	t.Run("Clone", func(t *testing.T) {
		c := set.Clone()
		c.Genres()[0] = "metal"
		delete(c, "min_energy")

		if set.Genres()[0] != "rock" || set.Len() != 3 {
			t.Errorf("expected original set to be untouched, got %v", set)
		}
		if Set(nil).Clone() != nil {
			t.Error("expected nil clone of nil set")
		}
	})

	t.Run("Query", func(t *testing.T) {
		q := set.Query()
		if q.Get("genres") != "rock,indie" {
			t.Errorf("expected genres re-joined, got %q", q.Get("genres"))
		}
		if q.Get("min_energy") != "0.5" || q.Get("target_key") != "7" {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("Keys", func(t *testing.T) {
		want := []string{"genres", "min_energy", "target_key"}
		if !reflect.DeepEqual(set.Keys(), want) {
			t.Errorf("expected %v, got %v", want, set.Keys())
		}
	})

	t.Run("JSON", func(t *testing.T) {
		data, err := json.Marshal(set)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		want := `{"genres":["rock","indie"],"min_energy":"0.5","target_key":"7"}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("FromStrings", func(t *testing.T) {
		restored := FromStrings(set.Strings())
		if !reflect.DeepEqual(restored, set) {
			t.Errorf("expected %v, got %v", set, restored)
		}

		if FromStrings(map[string]string{"bogus": "1"}).Len() != 0 {
			t.Error("expected stored entries to be re-validated")
		}
	})
}
