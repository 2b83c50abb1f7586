// package services defines the interfaces snapmix uses to talk to remote APIs
//
// Spotify (profile, top tracks, recommendations), Gemini (image analysis)
package services

import (
	"context"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"golang.org/x/oauth2"
)

// Service defines the interface for a music provider that can describe the user and recommend tracks.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// UserProfile retrieves the authenticated user.
	UserProfile(ctx context.Context) (*models.Profile, error)

	// TopTracks retrieves the user's most played tracks, most played first.
	TopTracks(ctx context.Context, limit int) ([]models.Track, error)

	// Recommendations retrieves tracks seeded by seeds and tuned by p.
	Recommendations(ctx context.Context, seeds []string, p params.Set) ([]models.Track, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] for providers using the authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the consent page URL carrying state.
	GetAuthURL(state string) string

	// UseToken authenticates with a previously saved token.
	UseToken(ctx context.Context, token *oauth2.Token) error

	// Token returns the current (possibly refreshed) token.
	Token() (*oauth2.Token, error)
}

// Analyzer turns an encoded image into the model's free-form parameter text.
type Analyzer interface {
	// Analyze sends the data URL token and returns the concatenated response text.
	Analyze(ctx context.Context, token string) (string, error)
}
