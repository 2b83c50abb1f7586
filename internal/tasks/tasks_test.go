package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/session"
	"github.com/desertthunder/snapmix/internal/shared"
	tu "github.com/desertthunder/snapmix/internal/testing"
	"golang.org/x/oauth2"
)

const analysisText = `Here you go
target_tempo: 120
target_valence: 0.8
min_energy: N/A
genres: indie, dream-pop,
target_mode: major`

type mockRecorder struct {
	runs []*models.AnalysisRun
	err  error
}

func (m *mockRecorder) Record(ctx context.Context, run *models.AnalysisRun) error {
	if m.err != nil {
		return m.err
	}
	run.SetID("run-1")
	run.SetSequence(len(m.runs) + 1)
	m.runs = append(m.runs, run)
	return nil
}

func newMocks() (*tu.MockService, *tu.MockAnalyzer) {
	spotify := &tu.MockService{
		Profile: &models.Profile{ID: "user1", DisplayName: "Ada"},
		Top:     []models.Track{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}},
		Recs:    []models.Track{{ID: "r1", Name: "Rec One", Artists: []string{"A"}}},
	}
	return spotify, &tu.MockAnalyzer{Text: analysisText}
}

// authorized returns a pipeline whose session already holds a token.
func authorized(t *testing.T, spotify *tu.MockService, analyzer *tu.MockAnalyzer) *Pipeline {
	t.Helper()
	p := NewPipeline(spotify, analyzer, nil, nil)
	if err := p.UseToken(context.Background(), nil, &oauth2.Token{AccessToken: "saved"}); err != nil {
		t.Fatalf("failed to use token: %v", err)
	}
	return p
}

func drain(ch chan ProgressUpdate) []ProgressUpdate {
	close(ch)
	var out []ProgressUpdate
	for u := range ch {
		out = append(out, u)
	}
	return out
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("Authorize", func(t *testing.T) {
		t.Run("Exchanges Code", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := NewPipeline(spotify, analyzer, nil, nil)

			token, err := p.Authorize(ctx, nil, "the-code")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if token.AccessToken != "mock-token" {
				t.Errorf("unexpected token %+v", token)
			}
			if spotify.AuthWith["auth_code"] != "the-code" {
				t.Errorf("expected code to be exchanged, got %v", spotify.AuthWith)
			}
			if p.Session().State() != session.Authorized {
				t.Errorf("expected authorized, got %s", p.Session().State())
			}
		})

		t.Run("Exchange Failure Leaves Session Anonymous", func(t *testing.T) {
			spotify, analyzer := newMocks()
			spotify.ErrOn = map[string]error{"Authenticate": shared.ErrAuthFailed}
			p := NewPipeline(spotify, analyzer, nil, nil)

			if _, err := p.Authorize(ctx, nil, "bad"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if p.Session().State() != session.Anonymous {
				t.Errorf("expected anonymous, got %s", p.Session().State())
			}
		})

		t.Run("Empty Code", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := NewPipeline(spotify, analyzer, nil, nil)

			if _, err := p.Authorize(ctx, nil, ""); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if spotify.Calls("Authenticate") != 0 {
				t.Error("expected no exchange for an empty code")
			}
		})

		t.Run("Already Authorized", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := authorized(t, spotify, analyzer)

			if _, err := p.Authorize(ctx, nil, "code"); !errors.Is(err, session.ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
		})
	})

	t.Run("Run", func(t *testing.T) {
		t.Run("Full Cycle", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := authorized(t, spotify, analyzer)
			recorder := &mockRecorder{}
			p.SetRecorder(recorder)

			progress := make(chan ProgressUpdate, 32)
			result, err := p.Run(ctx, progress, tu.WriteImage(t, "photo.png"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result.Profile == nil || result.Profile.ID != "user1" {
				t.Errorf("unexpected profile %+v", result.Profile)
			}
			if result.Analysis.Params.Len() != 3 {
				t.Errorf("expected 3 parameters, got %d: %v", result.Analysis.Params.Len(), result.Analysis.Params.Keys())
			}
			if len(result.Analysis.Diagnostics) != 3 {
				t.Errorf("expected 3 diagnostics, got %d", len(result.Analysis.Diagnostics))
			}
			if len(result.Recommendations) != 1 || result.Recommendations[0].ID != "r1" {
				t.Errorf("unexpected recommendations %+v", result.Recommendations)
			}

			if strings.Join(spotify.Seeds, ",") != "t1,t2,t3" {
				t.Errorf("expected top tracks as seeds, got %v", spotify.Seeds)
			}
			if got := spotify.Params.Query().Get("genres"); got != "indie,dream-pop" {
				t.Errorf("expected genres indie,dream-pop, got %q", got)
			}
			if len(analyzer.Tokens) != 1 || !strings.HasPrefix(analyzer.Tokens[0], "data:image/png;base64,") {
				t.Errorf("expected a data URL token, got %v", analyzer.Tokens)
			}

			if result.Run == nil || len(recorder.runs) != 1 {
				t.Fatal("expected run to be recorded")
			}
			run := recorder.runs[0]
			if run.UserID() != "user1" || run.MediaType() != "image/png" || run.Params()["target_tempo"] != "120" {
				t.Errorf("unexpected run %+v", run)
			}

			if p.Session().State() != session.Recommended {
				t.Errorf("expected recommended, got %s", p.Session().State())
			}

			updates := drain(progress)
			if len(updates) == 0 || updates[len(updates)-1].Phase != Done {
				t.Errorf("expected final update to be Done, got %+v", updates)
			}
		})

		t.Run("Second Photo Replaces Parameters", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := authorized(t, spotify, analyzer)
			image := tu.WriteImage(t, "photo.png")

			if _, err := p.Run(ctx, nil, image); err != nil {
				t.Fatalf("first run: %v", err)
			}

			analyzer.Text = "target_energy: 0.2"
			result, err := p.Run(ctx, nil, image)
			if err != nil {
				t.Fatalf("second run: %v", err)
			}
			if result.Analysis.Params.Len() != 1 {
				t.Errorf("expected parameters to be replaced, got %v", result.Analysis.Params.Keys())
			}
			if spotify.Calls("UserProfile") != 1 {
				t.Errorf("expected profile to be loaded once, got %d", spotify.Calls("UserProfile"))
			}
		})

		t.Run("Unauthorized Session", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := NewPipeline(spotify, analyzer, nil, nil)

			_, err := p.Run(ctx, nil, tu.WriteImage(t, "photo.png"))
			if !errors.Is(err, session.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if len(analyzer.Tokens) != 0 {
				t.Error("expected no analysis before authorization")
			}
		})

		t.Run("Unreadable Image", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := authorized(t, spotify, analyzer)

			_, err := p.Run(ctx, nil, "/does/not/exist.png")
			if !errors.Is(err, shared.ErrReadImage) {
				t.Fatalf("expected ErrReadImage, got %v", err)
			}
			if p.Session().State() != session.ProfileLoaded {
				t.Errorf("expected state to stay profile-loaded, got %s", p.Session().State())
			}
		})

		t.Run("Analysis Failure Keeps Previous State", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := authorized(t, spotify, analyzer)
			image := tu.WriteImage(t, "photo.png")

			if _, err := p.Run(ctx, nil, image); err != nil {
				t.Fatalf("first run: %v", err)
			}

			analyzer.Err = shared.ErrAnalysisFailed
			if _, err := p.Run(ctx, nil, image); !errors.Is(err, shared.ErrAnalysisFailed) {
				t.Fatalf("expected ErrAnalysisFailed, got %v", err)
			}

			snap := p.Session().Snapshot()
			if snap.State != session.Recommended || len(snap.Recommendations) != 1 {
				t.Errorf("expected previous recommendations to survive, got %s with %d", snap.State, len(snap.Recommendations))
			}
		})

		t.Run("Recommendation Failure", func(t *testing.T) {
			spotify, analyzer := newMocks()
			spotify.ErrOn = map[string]error{"Recommendations": shared.ErrAPIRequest}
			p := authorized(t, spotify, analyzer)
			recorder := &mockRecorder{}
			p.SetRecorder(recorder)

			result, err := p.Run(ctx, nil, tu.WriteImage(t, "photo.png"))
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if result == nil || result.Analysis == nil {
				t.Fatal("expected analysis to be returned with the error")
			}
			if len(result.Recommendations) != 0 {
				t.Error("expected recommendations to stay empty")
			}
			if p.Session().State() != session.Analyzed {
				t.Errorf("expected analyzed, got %s", p.Session().State())
			}
			if len(recorder.runs) != 0 {
				t.Error("expected nothing to be recorded")
			}
		})

		t.Run("No Seeds", func(t *testing.T) {
			spotify, analyzer := newMocks()
			spotify.Top = nil
			p := authorized(t, spotify, analyzer)

			_, err := p.Run(ctx, nil, tu.WriteImage(t, "photo.png"))
			if !errors.Is(err, shared.ErrNoSeeds) {
				t.Fatalf("expected ErrNoSeeds, got %v", err)
			}
			if spotify.Calls("Recommendations") != 0 {
				t.Error("expected no recommendation call without seeds")
			}
		})

		t.Run("Recorder Failure Is Not Fatal", func(t *testing.T) {
			spotify, analyzer := newMocks()
			p := authorized(t, spotify, analyzer)
			p.SetRecorder(&mockRecorder{err: errors.New("disk full")})

			result, err := p.Run(ctx, nil, tu.WriteImage(t, "photo.png"))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Run != nil {
				t.Error("expected no run on recorder failure")
			}
		})
	})

	t.Run("Individual Steps", func(t *testing.T) {
		spotify, analyzer := newMocks()
		p := authorized(t, spotify, analyzer)

		if _, err := p.Recommend(ctx, nil); !errors.Is(err, session.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition before analysis, got %v", err)
		}

		profile, err := p.LoadProfile(ctx, nil)
		if err != nil || profile.Name() != "Ada" {
			t.Fatalf("unexpected profile %+v, %v", profile, err)
		}

		analysis, err := p.Analyze(ctx, nil, tu.WriteImage(t, "photo.png"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v, _ := analysis.Params.Get("target_valence"); v.Raw != "0.8" {
			t.Errorf("expected target_valence 0.8, got %q", v.Raw)
		}

		tracks, err := p.Recommend(ctx, nil)
		if err != nil || len(tracks) != 1 {
			t.Fatalf("unexpected recommendations %v, %v", tracks, err)
		}
	})

	t.Run("Progress Never Blocks", func(t *testing.T) {
		spotify, analyzer := newMocks()
		p := authorized(t, spotify, analyzer)

		progress := make(chan ProgressUpdate)
		if _, err := p.Run(ctx, progress, tu.WriteImage(t, "photo.png")); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestPhaseString(t *testing.T) {
	if FetchRecommendations.String() != "fetch_recommendations" {
		t.Errorf("unexpected %s", FetchRecommendations)
	}
	if Phase(99).String() != "" {
		t.Error("expected empty string for unknown phase")
	}
}
