package models

import "testing"

func TestTrack(t *testing.T) {
	track := Track{ID: "1", Name: "Song", Artists: []string{"A", "B"}}
	if got := track.ArtistLine(); got != "A, B" {
		t.Errorf("expected 'A, B', got %q", got)
	}
}

func TestTrackIDs(t *testing.T) {
	ids := TrackIDs([]Track{{ID: "a"}, {ID: ""}, {ID: "b"}})
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected ids %v", ids)
	}
}

func TestProfileName(t *testing.T) {
	if (Profile{ID: "u1"}).Name() != "u1" {
		t.Error("expected fallback to ID")
	}
	if (Profile{ID: "u1", DisplayName: "Ada"}).Name() != "Ada" {
		t.Error("expected display name")
	}
}

func TestAnalysisRun(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		if err := NewAnalysisRun("u", "", "digest", "").Validate(); err == nil {
			t.Error("expected error for missing media type")
		}
		if err := NewAnalysisRun("u", "image/png", "", "").Validate(); err == nil {
			t.Error("expected error for missing digest")
		}
		if err := NewAnalysisRun("u", "image/png", "digest", "").Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("SetParams Nil", func(t *testing.T) {
		run := NewAnalysisRun("u", "image/png", "d", "")
		run.SetParams(nil)
		if run.Params() == nil {
			t.Error("expected empty map, got nil")
		}
	})
}
