package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/shared"
	th "github.com/desertthunder/snapmix/internal/testing"
)

func testReport() *Report {
	return &Report{
		User:    "Ada",
		Image:   "beach.jpg",
		Created: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Params:  params.Parse("target_tempo: 120\ngenres: indie, dream-pop\ntarget_valence: 0.8"),
		Tracks: []models.Track{
			{ID: "track1", Name: "Song One", Artists: []string{"Artist One"}},
			{ID: "track2", Name: "Song, Two", Artists: []string{"Artist Two", "Guest"}},
		},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testReport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Rank,ID,Name,Artists" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[2] != `2,track2,"Song, Two","Artist Two, Guest"` {
			t.Errorf("expected quoted fields, got %s", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testReport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Recommendations",
			"**User**: Ada",
			"**Photo**: beach.jpg",
			"**Created**: 2025-06-01T12:00:00Z",
			"| genres | indie,dream-pop |",
			"| target_tempo | 120 |",
			"## Tracks (2)",
			"2. Artist Two, Guest - Song, Two",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToMarkdown Without Params", func(t *testing.T) {
		report := testReport()
		report.Params = params.Set{}

		data, _ := ExportToMarkdown(report)
		if strings.Contains(string(data), "## Parameters") {
			t.Error("expected parameters table to be omitted")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testReport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "2 recommendations:") {
			t.Errorf("Text missing count, got: %s", output)
		}
		if !strings.Contains(output, "  target_valence: 0.8") {
			t.Errorf("Text missing parameter, got: %s", output)
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Text missing track, got: %s", output)
		}
	})

	t.Run("Export", func(t *testing.T) {
		tests := []struct {
			format string
			prefix string
		}{
			{"csv", "Rank,"},
			{"md", "# Recommendations"},
			{"markdown", "# Recommendations"},
			{"text", "User: Ada"},
			{"", "User: Ada"},
		}

		for _, tt := range tests {
			t.Run(tt.format, func(t *testing.T) {
				data, err := Export(testReport(), tt.format)
				if err != nil {
					t.Fatalf("Export failed: %v", err)
				}
				if !strings.HasPrefix(string(data), tt.prefix) {
					t.Errorf("expected prefix %q, got %q", tt.prefix, string(data))
				}
			})
		}

		t.Run("unknown", func(t *testing.T) {
			if _, err := Export(testReport(), "xml"); !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("expected ErrInvalidFlag, got %v", err)
			}
		})
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		written, err := WriteExport(testReport(), "csv", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if written != path {
			t.Errorf("expected %s, got %s", path, written)
		}

		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "track1") {
			t.Errorf("unexpected file content %s", content)
		}
	})

	t.Run("WriteExport Bad Path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if _, err := WriteExport(testReport(), "text", path); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}

func TestReportFromRun(t *testing.T) {
	run := models.NewAnalysisRun("user1", "image/jpeg", "digest", "raw")
	run.SetSequence(7)
	run.SetParams(map[string]string{"genres": "jazz,soul", "target_tempo": "90", "bogus": "1"})
	run.SetRecommendations([]models.Track{{ID: "r1", Name: "Rec"}})

	report := ReportFromRun(run)
	if report.Image != "run #7 (image/jpeg)" {
		t.Errorf("unexpected image label %q", report.Image)
	}
	if genres := report.Params.Genres(); len(genres) != 2 || genres[1] != "soul" {
		t.Errorf("unexpected genres %v", genres)
	}
	if _, ok := report.Params.Get("bogus"); ok {
		t.Error("expected unknown keys to be dropped on reload")
	}
	if len(report.Tracks) != 1 {
		t.Errorf("expected 1 track, got %d", len(report.Tracks))
	}
}
