// Package services implements the remote collaborators of snapmix: Spotify for identity and
// recommendations, Gemini for image analysis.
//
// # Service Interface
//
// [Service] abstracts the music provider; [OAuthService] adds the authorization code flow.
// [SpotifyService] implements both.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
// The [oauth2.Client] refreshes expired tokens using the refresh token and
// [SpotifyService.SetTokenRefreshCallback] lets callers persist the new token.
//
// Requests are paced with a [rate.Limiter] built from requests_per_second. There is no retry.
//
// # Gemini Implementation
//
// [GeminiAnalyzer] sends the photo as an inline blob together with a fixed prompt and
// concatenates the streamed chunks. Results are cached per image digest.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : no client id, API key or project configured
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : Spotify rejected the token, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrNoSeeds] : Recommendations called without seed tracks
//   - [shared.ErrAnalysisFailed] : Gemini call or stream failed
//
// # API Mappings
//
// Spotify JSON responses are mapped to [models.Profile] and [models.Track]:
//   - [SpotifyUser] → [models.Profile]
//   - [SpotifyTrack] → [models.Track] with artist names kept in order
package services
