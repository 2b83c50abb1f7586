// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"github.com/desertthunder/snapmix/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultTopTracks is how many top tracks seed a recommendation.
	DefaultTopTracks = 5
	maxTopTracks     = 50
	maxSeeds         = 5
)

// SpotifyScopes are the permissions requested on the consent page.
var SpotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-top-read",
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyOption customizes a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points API calls at baseURL instead of api.spotify.com.
func WithBaseURL(baseURL string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithEndpoint replaces the accounts.spotify.com authorize and token URLs.
func WithEndpoint(authURL, tokenURL string) SpotifyOption {
	return func(s *SpotifyService) {
		s.config.Endpoint.AuthURL = authURL
		s.config.Endpoint.TokenURL = tokenURL
	}
}

// WithHTTPClient sets the client used for token exchange and as the base transport.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.baseClient = c }
}

// WithRateLimit paces API requests to rps per second; non-positive disables pacing.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and provides methods for profile and recommendation calls.
type SpotifyService struct {
	config         *oauth2.Config
	source         oauth2.TokenSource
	httpClient     *http.Client
	baseClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	onTokenRefresh func(*oauth2.Token)
	credentials    map[string]string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = shared.DefaultRedirectURI
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       SpotifyScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  spotifyTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	s := &SpotifyService{
		config:      config,
		baseURL:     spotifyBaseURL,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		credentials: credentials,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
//
// A saved "refresh_token" may accompany the access token so the client can renew it.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		return s.UseToken(ctx, &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		})
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(s.clientContext(ctx), authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %w", shared.ErrAuthFailed, err)
		}
		return s.UseToken(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// UseToken authenticates with a previously issued token, refreshing it when it expires.
func (s *SpotifyService) UseToken(ctx context.Context, token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrMissingCredentials)
	}

	ctx = s.clientContext(ctx)
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
		last:     token.AccessToken,
	}
	s.source = oauth2.ReuseTokenSource(token, source)
	s.httpClient = oauth2.NewClient(ctx, s.source)
	return nil
}

// Token returns the current token, refreshing it if needed.
func (s *SpotifyService) Token() (*oauth2.Token, error) {
	if s.source == nil {
		return nil, shared.ErrNotAuthenticated
	}
	return s.source.Token()
}

// SetTokenRefreshCallback registers fn to receive refreshed tokens. Must be called before authenticating.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	if s.baseClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, apiMessage(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d: %s", shared.ErrAPIRequest, resp.StatusCode, apiMessage(resp))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %w", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

// apiMessage extracts Spotify's error message, falling back to the status text.
func apiMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr spotifyError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return http.StatusText(resp.StatusCode)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*models.Profile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &models.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
	}, nil
}

// TopTracks retrieves the user's top tracks. Limit defaults to 5 and is capped at 50.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = DefaultTopTracks
	}
	if limit > maxTopTracks {
		limit = maxTopTracks
	}

	var response struct {
		Items []SpotifyTrack `json:"items"`
	}
	query := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := s.doRequest(ctx, "/me/top/tracks", query, &response); err != nil {
		return nil, err
	}
	return toTracks(response.Items), nil
}

// Recommendations retrieves tracks seeded by up to five track IDs and tuned by p.
//
// Numeric parameters are sent verbatim and genres are joined by commas.
func (s *SpotifyService) Recommendations(ctx context.Context, seeds []string, p params.Set) ([]models.Track, error) {
	if len(seeds) == 0 {
		return nil, shared.ErrNoSeeds
	}
	if len(seeds) > maxSeeds {
		seeds = seeds[:maxSeeds]
	}

	query := p.Query()
	query.Set("seed_tracks", strings.Join(seeds, ","))

	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	if err := s.doRequest(ctx, "/recommendations", query, &response); err != nil {
		return nil, err
	}
	return toTracks(response.Tracks), nil
}

func toTracks(items []SpotifyTrack) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		artists := make([]string, 0, len(item.Artists))
		for _, a := range item.Artists {
			artists = append(artists, a.Name)
		}
		tracks = append(tracks, models.Track{ID: item.ID, Name: item.Name, Artists: artists})
	}
	return tracks
}

// refreshableTokenSource reports every new access token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}
