package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/snapmix/internal/server"
	"github.com/desertthunder/snapmix/internal/services"
	"github.com/desertthunder/snapmix/internal/shared"
	"github.com/desertthunder/snapmix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// authTimeout bounds how long the CLI waits on the browser.
var authTimeout = 2 * time.Minute

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	pipeline := tasks.NewPipeline(spotify, nil, nil, shared.WithLogger(r.logger, "component", "pipeline"))
	if err := r.login(ctx, pipeline, "authorization"); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Tokens saved to %s\n\n", r.configName())
	r.writePlain("You can now use: snapmix recommend --image photo.jpg\n")
	return nil
}

// authorize reuses the saved token when there is one and falls back to the browser flow.
func (r *Runner) authorize(ctx context.Context, pipeline *tasks.Pipeline) error {
	if token := r.config.Credentials.Spotify.Token(); token != nil {
		r.logger.Debug("using saved spotify token")
		return pipeline.UseToken(ctx, nil, token)
	}
	return r.login(ctx, pipeline, "authorization")
}

// login runs the browser flow, exchanges the code through the pipeline and saves the tokens.
func (r *Runner) login(ctx context.Context, pipeline *tasks.Pipeline, prefix string) error {
	spotify, err := r.spotifyService()
	if err != nil {
		return err
	}

	code, err := r.doOAuth(ctx, spotify, prefix)
	if err != nil {
		return err
	}

	token, err := pipeline.Authorize(ctx, nil, code)
	if err != nil {
		return err
	}
	return r.saveTokens(token)
}

// withReauth runs op and, when Spotify rejects the saved token, signs in again and retries once.
func (r *Runner) withReauth(ctx context.Context, pipeline *tasks.Pipeline, op func() error) error {
	err := op()
	if !errors.Is(err, shared.ErrTokenExpired) {
		return err
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...\n")

	pipeline.Session().Reset()
	if err := r.login(ctx, pipeline, "reauthorization"); err != nil {
		return fmt.Errorf("reauthorization failed: %w", err)
	}

	r.writePlain("✓ Successfully reauthenticated. Retrying operation...\n\n")
	return op()
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server and returns the authorization code.
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	callback := server.NewCallbackHandler(callbackPath(r.config.Credentials.Spotify.RedirectURI), state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(callback)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer, err := server.Start(serverAddr, router)
	if err != nil {
		return "", fmt.Errorf("%w: failed to start callback server: %v", shared.ErrServiceUnavailable, err)
	}
	defer func() {
		if err := httpServer.Shutdown(); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()
	r.logger.Infof("started OAuth server for %s at %v", prefix, httpServer.Addr())

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.CallbackResult

	select {
	case result = <-callback.Result():
	case err := <-httpServer.Errors():
		return "", fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return "", fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if result.Err != nil {
		return "", fmt.Errorf("authorization failed: %w", result.Err)
	}
	return result.Code, nil
}

// callbackPath extracts the path the redirect URI points at.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}
