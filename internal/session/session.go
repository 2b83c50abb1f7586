package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"golang.org/x/oauth2"
)

var ErrInvalidTransition = errors.New("invalid session transition")

// State is the phase a session is in.
type State int

const (
	Anonymous State = iota
	CodeReceived
	Authorized
	ProfileLoaded
	Analyzed
	Recommended
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case CodeReceived:
		return "code-received"
	case Authorized:
		return "authorized"
	case ProfileLoaded:
		return "profile-loaded"
	case Analyzed:
		return "analyzed"
	case Recommended:
		return "recommended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is a copy of the session contents at one instant.
type Snapshot struct {
	State           State
	Token           *oauth2.Token
	Profile         *models.Profile
	TopTracks       []models.Track
	RawAnalysis     string
	Params          params.Set
	Recommendations []models.Track
}

// Session is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	state State
	code  string
	token *oauth2.Token

	profile         *models.Profile
	topTracks       []models.Track
	rawAnalysis     string
	params          params.Set
	recommendations []models.Track
}

func New() *Session {
	return &Session{}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Code returns the authorization code received from the callback, if any.
func (s *Session) Code() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.code
}

// Snapshot copies the session so callers can render it without holding the lock.
// Nothing in the snapshot is shared with the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		State:           s.state,
		TopTracks:       slices.Clone(s.topTracks),
		RawAnalysis:     s.rawAnalysis,
		Params:          s.params.Clone(),
		Recommendations: slices.Clone(s.recommendations),
	}
	if s.token != nil {
		token := *s.token
		snap.Token = &token
	}
	if s.profile != nil {
		profile := *s.profile
		snap.Profile = &profile
	}
	return snap
}

// SeedIDs returns the IDs of the loaded top tracks.
func (s *Session) SeedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.TrackIDs(s.topTracks)
}

// Params returns a copy of the parameter set of the latest analysis.
func (s *Session) Params() params.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params.Clone()
}

// sources lists the states each state may be entered from.
var sources = map[State][]State{
	CodeReceived:  {Anonymous},
	Authorized:    {Anonymous, CodeReceived},
	ProfileLoaded: {Authorized, ProfileLoaded, Analyzed, Recommended},
	Analyzed:      {ProfileLoaded, Analyzed, Recommended},
	Recommended:   {Analyzed},
}

func (s *Session) guard(target State) error {
	if slices.Contains(sources[target], s.state) {
		return nil
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s.state, target)
}

// CanEnter reports whether target is reachable from the current state, so callers
// can refuse work before making network calls.
func (s *Session) CanEnter(target State) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guard(target)
}

// ReceiveCode records the authorization code from the OAuth callback.
func (s *Session) ReceiveCode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(CodeReceived); err != nil {
		return err
	}
	if code == "" {
		return fmt.Errorf("%w: empty authorization code", ErrInvalidTransition)
	}
	s.code = code
	s.state = CodeReceived
	return nil
}

// Authorize stores the access token. From Anonymous it adopts a previously saved token.
func (s *Session) Authorize(token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(Authorized); err != nil {
		return err
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrInvalidTransition)
	}
	s.token = token
	s.code = ""
	s.state = Authorized
	return nil
}

// LoadProfile stores the user and their top tracks. Later phases may reload without losing analysis.
func (s *Session) LoadProfile(profile *models.Profile, top []models.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(ProfileLoaded); err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("%w: nil profile", ErrInvalidTransition)
	}
	s.profile = profile
	s.topTracks = top
	if s.state == Authorized {
		s.state = ProfileLoaded
	}
	return nil
}

// Analyze replaces the previous analysis and clears recommendations made from it.
func (s *Session) Analyze(raw string, set params.Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(Analyzed); err != nil {
		return err
	}
	if set == nil {
		set = params.Set{}
	}
	s.rawAnalysis = raw
	s.params = set
	s.recommendations = nil
	s.state = Analyzed
	return nil
}

// Recommend stores the tracks fetched for the current analysis.
func (s *Session) Recommend(tracks []models.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(Recommended); err != nil {
		return err
	}
	s.recommendations = tracks
	s.state = Recommended
	return nil
}

// Reset forgets everything, including the token.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Anonymous
	s.code = ""
	s.token = nil
	s.profile = nil
	s.topTracks = nil
	s.rawAnalysis = ""
	s.params = nil
	s.recommendations = nil
}
