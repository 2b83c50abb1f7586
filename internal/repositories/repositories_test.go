package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newRun(userID, digest string) *models.AnalysisRun {
	run := models.NewAnalysisRun(userID, "image/png", digest, "target_tempo: 120\ngenres: jazz")
	run.SetParams(map[string]string{"target_tempo": "120", "genres": "jazz"})
	run.SetSeedTrackIDs([]string{"t1", "t2"})
	run.SetRecommendations([]models.Track{{ID: "r1", Name: "Rec", Artists: []string{"A", "B"}}})
	return run
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "analysis_runs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for a table without sequence")
	}
}

func TestAnalysisRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		run := newRun("user1", "digest1")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Create Validation Error", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		run := models.NewAnalysisRun("user1", "", "digest", "")

		if err := repo.Create(run); err == nil {
			t.Fatal("expected validation error for empty media type")
		}
		if run.ID() != "" {
			t.Error("expected no ID for a rejected run")
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		run := newRun("user1", "digest1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.UserID() != "user1" || got.ImageDigest() != "digest1" || got.MediaType() != "image/png" {
			t.Errorf("unexpected run %+v", got)
		}
		if got.Params()["genres"] != "jazz" || got.Params()["target_tempo"] != "120" {
			t.Errorf("unexpected params %v", got.Params())
		}
		if ids := got.SeedTrackIDs(); len(ids) != 2 || ids[1] != "t2" {
			t.Errorf("unexpected seeds %v", ids)
		}
		if recs := got.Recommendations(); len(recs) != 1 || recs[0].ArtistLine() != "A, B" {
			t.Errorf("unexpected recommendations %+v", recs)
		}
		if got.CreatedAt().IsZero() || got.IsDeleted() {
			t.Error("expected created timestamp and no deletion")
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))

		if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if _, err := repo.GetBySequence(99); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("GetBySequence", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		first, second := newRun("u", "d1"), newRun("u", "d2")
		repo.Create(first)
		repo.Create(second)

		got, err := repo.GetBySequence(2)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.ID() != second.ID() {
			t.Errorf("expected %s, got %s", second.ID(), got.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		run := newRun("user1", "digest1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.SetRecommendations(nil)
		run.SetParams(map[string]string{"target_energy": "0.3"})
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if len(got.Recommendations()) != 0 {
			t.Errorf("expected recommendations to be cleared, got %v", got.Recommendations())
		}
		if got.Params()["target_energy"] != "0.3" {
			t.Errorf("unexpected params %v", got.Params())
		}
	})

	t.Run("Update Not Found", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		run := newRun("user1", "digest1")
		run.SetID("missing")

		if err := repo.Update(run); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		run := newRun("user1", "digest1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected deleted run to be hidden, got %v", err)
		}
		if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		for _, r := range []*models.AnalysisRun{newRun("u1", "a"), newRun("u2", "b"), newRun("u1", "b")} {
			if err := repo.Create(r); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     int
		}{
			{"All", map[string]any{}, 3},
			{"By User", map[string]any{"user_id": "u1"}, 2},
			{"By Digest", map[string]any{"image_digest": "b"}, 2},
			{"By Both", map[string]any{"user_id": "u2", "image_digest": "b"}, 1},
			{"No Match", map[string]any{"user_id": "nobody"}, 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list runs: %v", err)
				}
				if len(runs) != tt.want {
					t.Errorf("expected %d runs, got %d", tt.want, len(runs))
				}
			})
		}
	})

	t.Run("Recent", func(t *testing.T) {
		repo := NewAnalysisRunRepository(setupTestDB(t))
		for i := 0; i < 4; i++ {
			repo.Create(newRun("u", "d"))
		}

		runs, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("failed to list recent runs: %v", err)
		}
		if len(runs) != 2 || runs[0].Sequence() != 4 || runs[1].Sequence() != 3 {
			t.Errorf("expected runs 4 and 3, got %d runs", len(runs))
		}
	})

	t.Run("Implements Repository", func(t *testing.T) {
		var _ models.Repository[*models.AnalysisRun] = NewAnalysisRunRepository(nil)
	})
}

func TestRunRecorder(t *testing.T) {
	repo := NewAnalysisRunRepository(setupTestDB(t))
	recorder := NewRunRecorder(repo)

	run := newRun("user1", "digest1")
	if err := recorder.Record(context.Background(), run); err != nil {
		t.Fatalf("failed to record run: %v", err)
	}
	if _, err := repo.Get(run.ID()); err != nil {
		t.Errorf("expected recorded run to be stored, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := recorder.Record(ctx, newRun("user1", "digest2")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
