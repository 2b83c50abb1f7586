package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// DefaultRedirectURI is the fixed callback the Spotify app must whitelist.
const DefaultRedirectURI = "http://localhost:3000/callback"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify API credentials and the most recently issued tokens.
type SpotifyConfig struct {
	ClientID          string    `toml:"client_id"`
	ClientSecret      string    `toml:"client_secret"`
	RedirectURI       string    `toml:"redirect_uri"`
	RequestsPerSecond float64   `toml:"requests_per_second"`
	AccessToken       string    `toml:"access_token,omitempty"`
	RefreshToken      string    `toml:"refresh_token,omitempty"`
	TokenType         string    `toml:"token_type,omitempty"`
	Expiry            time.Time `toml:"expiry,omitempty"`
}

// GeminiConfig selects the vision model backend.
//
// Either APIKey (Gemini API) or Project (Vertex AI) must be set.
type GeminiConfig struct {
	APIKey   string `toml:"api_key"`
	Project  string `toml:"project"`
	Location string `toml:"location"`
	Model    string `toml:"model"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Map returns the credentials in the shape expected by services.NewSpotifyService.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// HasClient reports whether both client credentials are present.
func (s SpotifyConfig) HasClient() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// Token rebuilds the saved [oauth2.Token], or nil when none was stored.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		Expiry:       s.Expiry,
	}
}

// Update stores token, keeping the previous refresh token when Spotify omits a new one.
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", ErrInvalidInput)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenType = token.TokenType
	s.Expiry = token.Expiry
	return nil
}

// HasCredentials reports whether any Gemini backend is configured.
func (g GeminiConfig) HasCredentials() bool {
	return g.APIKey != "" || g.Project != ""
}

// ApplyEnv overrides secrets from the environment; environment values win over the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Credentials.Gemini.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.Credentials.Gemini.Project = v
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		c.Credentials.Spotify.RedirectURI = DefaultRedirectURI
	}
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
// Environment overrides are applied in both cases.
func LoadConfigOrDefault(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		if config, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	config.ApplyEnv()
	return config, nil
}

// SaveConfig writes the configuration to path as TOML with owner-only permissions, since it holds tokens.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
