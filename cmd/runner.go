package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snapmix/internal/services"
	"github.com/desertthunder/snapmix/internal/shared"
	"github.com/desertthunder/snapmix/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultConfigPath = "config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    services.OAuthService
	analyzer   services.Analyzer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Spotify and Analyzer are built from Config on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    services.OAuthService
	Analyzer   services.Analyzer
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		analyzer:   opts.Analyzer,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, parseCommand, analyzeCommand, recommendCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// useConfig reloads the configuration when a command points --config at another file.
func (r *Runner) useConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}

	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return err
	}
	r.logger.Debug("loaded configuration", "path", path)

	r.config = config
	r.configPath = path
	return nil
}

// saveTokens stores token in the configuration and persists it when a config path is known.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.logger.Debug("tokens saved", "path", r.configPath)
	return nil
}

// spotifyService returns the configured Spotify client, creating it on first use.
func (r *Runner) spotifyService() (services.OAuthService, error) {
	if r.spotify != nil {
		return r.spotify, nil
	}

	creds := r.config.Credentials.Spotify
	if !creds.HasClient() {
		return nil, fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s or the environment",
			shared.ErrMissingCredentials, r.configName())
	}

	svc, err := services.NewSpotifyService(creds.Map(),
		services.WithHTTPClient(r.httpClient),
		services.WithRateLimit(creds.RequestsPerSecond),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	svc.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveTokens(token); err != nil {
			r.logger.Warn("failed to save refreshed token", "error", err)
		}
	})

	r.spotify = svc
	return svc, nil
}

// analyzerService returns the vision model client, creating it on first use.
func (r *Runner) analyzerService(ctx context.Context) (services.Analyzer, error) {
	if r.analyzer != nil {
		return r.analyzer, nil
	}

	analyzer, err := services.NewGeminiAnalyzer(ctx, r.config.Credentials.Gemini, shared.WithLogger(r.logger, "service", "gemini"))
	if err != nil {
		return nil, err
	}

	r.analyzer = analyzer
	return analyzer, nil
}

// newPipeline wires an authorized pipeline. The analyzer is only required by commands that upload a photo.
func (r *Runner) newPipeline(ctx context.Context, withAnalyzer bool) (*tasks.Pipeline, error) {
	spotify, err := r.spotifyService()
	if err != nil {
		return nil, err
	}

	var analyzer services.Analyzer
	if withAnalyzer {
		if analyzer, err = r.analyzerService(ctx); err != nil {
			return nil, err
		}
	}

	pipeline := tasks.NewPipeline(spotify, analyzer, nil, shared.WithLogger(r.logger, "component", "pipeline"))
	if err := r.authorize(ctx, pipeline); err != nil {
		return nil, err
	}
	return pipeline, nil
}

func (r *Runner) configName() string {
	if r.configPath == "" {
		return defaultConfigPath
	}
	return r.configPath
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
