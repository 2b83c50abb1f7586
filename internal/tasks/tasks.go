// package tasks implements the photo → parameters → recommendations cycle.
//
// The core abstraction is Pipeline, which moves a session through authorization, analysis and recommendation.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snapmix/internal/media"
	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/services"
	"github.com/desertthunder/snapmix/internal/session"
	"github.com/desertthunder/snapmix/internal/shared"
	"golang.org/x/oauth2"
)

// Recorder persists completed cycles.
type Recorder interface {
	Record(ctx context.Context, run *models.AnalysisRun) error
}

// Analysis is the outcome of one photo analysis.
type Analysis struct {
	MediaType   string
	Digest      string
	Raw         string
	Params      params.Set
	Diagnostics []params.Diagnostic
}

// Result contains everything a full cycle produced.
type Result struct {
	Profile         *models.Profile
	Analysis        *Analysis
	Recommendations []models.Track
	Run             *models.AnalysisRun // nil unless a Recorder saved it
}

// Pipeline runs the cycle against Spotify and an [services.Analyzer].
type Pipeline struct {
	spotify  services.OAuthService
	analyzer services.Analyzer
	session  *session.Session
	recorder Recorder
	logger   *log.Logger
	topLimit int
	last     *Analysis
}

// NewPipeline creates a Pipeline over sess. A nil logger discards output.
func NewPipeline(spotify services.OAuthService, analyzer services.Analyzer, sess *session.Session, logger *log.Logger) *Pipeline {
	if sess == nil {
		sess = session.New()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{
		spotify:  spotify,
		analyzer: analyzer,
		session:  sess,
		logger:   logger,
		topLimit: services.DefaultTopTracks,
	}
}

// SetRecorder enables run history.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// Session returns the session the pipeline drives.
func (p *Pipeline) Session() *session.Session {
	return p.session
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Authorize exchanges the authorization code from the callback for a token.
func (p *Pipeline) Authorize(ctx context.Context, progress chan<- ProgressUpdate, code string) (*oauth2.Token, error) {
	if err := p.session.CanEnter(session.CodeReceived); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrAuthFailed)
	}

	p.sendProgress(progress, authorizeUpdate(false))

	if err := p.spotify.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
		p.logger.Error("authorization failed", "error", err)
		return nil, err
	}
	token, err := p.spotify.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if err := p.session.ReceiveCode(code); err != nil {
		return nil, err
	}
	if err := p.session.Authorize(token); err != nil {
		return nil, err
	}
	p.logger.Info("authorized with spotify")
	return token, nil
}

// UseToken authorizes the session with a saved token, skipping the consent page.
func (p *Pipeline) UseToken(ctx context.Context, progress chan<- ProgressUpdate, token *oauth2.Token) error {
	if err := p.session.CanEnter(session.Authorized); err != nil {
		return err
	}

	p.sendProgress(progress, authorizeUpdate(true))

	if err := p.spotify.UseToken(ctx, token); err != nil {
		return err
	}
	return p.session.Authorize(token)
}

// LoadProfile fetches the user and their top tracks.
func (p *Pipeline) LoadProfile(ctx context.Context, progress chan<- ProgressUpdate) (*models.Profile, error) {
	return p.loadProfile(ctx, progress, 1, 1)
}

func (p *Pipeline) loadProfile(ctx context.Context, progress chan<- ProgressUpdate, step, total int) (*models.Profile, error) {
	if err := p.session.CanEnter(session.ProfileLoaded); err != nil {
		return nil, err
	}

	p.sendProgress(progress, loadingProfileUpdate(step, total))

	profile, err := p.spotify.UserProfile(ctx)
	if err != nil {
		p.logger.Error("failed to load profile", "error", err)
		return nil, err
	}

	top, err := p.spotify.TopTracks(ctx, p.topLimit)
	if err != nil {
		p.logger.Error("failed to load top tracks", "error", err)
		return nil, err
	}

	if err := p.session.LoadProfile(profile, top); err != nil {
		return nil, err
	}

	p.logger.Info("profile loaded", "user", profile.ID, "top_tracks", len(top))
	p.sendProgress(progress, profileLoadedUpdate(step, total, profile, top))
	return profile, nil
}

// Analyze encodes the photo at imagePath, sends it for analysis and parses the reply.
//
// A previous analysis and its recommendations are replaced.
func (p *Pipeline) Analyze(ctx context.Context, progress chan<- ProgressUpdate, imagePath string) (*Analysis, error) {
	return p.analyze(ctx, progress, imagePath, 1, 3)
}

func (p *Pipeline) analyze(ctx context.Context, progress chan<- ProgressUpdate, imagePath string, step, total int) (*Analysis, error) {
	if err := p.session.CanEnter(session.Analyzed); err != nil {
		return nil, err
	}

	p.sendProgress(progress, encodeUpdate(step, total, imagePath))

	token, err := media.EncodeFile(imagePath)
	if err != nil {
		p.logger.Error("failed to encode image", "path", imagePath, "error", err)
		return nil, err
	}
	mediaType, err := media.MediaType(token)
	if err != nil {
		p.logger.Error("failed to read image type", "path", imagePath, "error", err)
		return nil, err
	}

	p.sendProgress(progress, analyzeUpdate(step+1, total))

	raw, err := p.analyzer.Analyze(ctx, token)
	if err != nil {
		p.logger.Error("analysis failed", "error", err)
		return nil, err
	}

	set, diags := params.Inspect(raw)
	for _, d := range diags {
		p.logger.Debug("skipped line", "line", d.Line, "key", d.Key, "reason", d.Reason)
	}

	if err := p.session.Analyze(raw, set); err != nil {
		return nil, err
	}

	analysis := &Analysis{
		MediaType:   mediaType,
		Digest:      media.Digest(token),
		Raw:         raw,
		Params:      set,
		Diagnostics: diags,
	}
	p.last = analysis

	p.logger.Info("photo analyzed", "params", set.Len(), "skipped", len(diags))
	p.sendProgress(progress, parsedUpdate(step+2, total, set, len(diags)))
	return analysis, nil
}

// Recommend fetches tracks for the top-track seeds and the latest parameters.
func (p *Pipeline) Recommend(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Track, error) {
	tracks, _, err := p.recommend(ctx, progress, 1, 2)
	return tracks, err
}

func (p *Pipeline) recommend(ctx context.Context, progress chan<- ProgressUpdate, step, total int) ([]models.Track, *models.AnalysisRun, error) {
	if err := p.session.CanEnter(session.Recommended); err != nil {
		return nil, nil, err
	}

	seeds := p.session.SeedIDs()
	if len(seeds) == 0 {
		return nil, nil, fmt.Errorf("%w: the account has no top tracks", shared.ErrNoSeeds)
	}

	p.sendProgress(progress, recommendingUpdate(step, total, len(seeds)))

	tracks, err := p.spotify.Recommendations(ctx, seeds, p.session.Params())
	if err != nil {
		p.logger.Error("failed to fetch recommendations", "error", err)
		return nil, nil, err
	}

	if err := p.session.Recommend(tracks); err != nil {
		return nil, nil, err
	}
	p.logger.Info("recommendations fetched", "count", len(tracks))

	run := p.record(ctx, progress, step+1, total, seeds, tracks)
	return tracks, run, nil
}

// record saves the cycle when a recorder is set. Failures are logged only.
func (p *Pipeline) record(ctx context.Context, progress chan<- ProgressUpdate, step, total int, seeds []string, tracks []models.Track) *models.AnalysisRun {
	if p.recorder == nil || p.last == nil {
		return nil
	}

	var userID string
	if snap := p.session.Snapshot(); snap.Profile != nil {
		userID = snap.Profile.ID
	}

	run := models.NewAnalysisRun(userID, p.last.MediaType, p.last.Digest, p.last.Raw)
	run.SetParams(p.last.Params.Strings())
	run.SetSeedTrackIDs(seeds)
	run.SetRecommendations(tracks)

	if err := p.recorder.Record(ctx, run); err != nil {
		p.logger.Warn("failed to record run", "error", err)
		return nil
	}

	p.sendProgress(progress, recordUpdate(step, total, run))
	return run
}

// Run performs a full cycle for imagePath on an authorized session.
func (p *Pipeline) Run(ctx context.Context, progress chan<- ProgressUpdate, imagePath string) (*Result, error) {
	result := &Result{}

	if p.session.State() == session.Authorized {
		if _, err := p.loadProfile(ctx, progress, 1, cycleSteps); err != nil {
			return nil, err
		}
	}
	result.Profile = p.session.Snapshot().Profile

	analysis, err := p.analyze(ctx, progress, imagePath, 2, cycleSteps)
	if err != nil {
		return nil, err
	}
	result.Analysis = analysis

	tracks, run, err := p.recommend(ctx, progress, 5, cycleSteps)
	if err != nil {
		return result, err
	}
	result.Recommendations = tracks
	result.Run = run

	p.sendProgress(progress, doneUpdate(tracks))
	return result, nil
}
