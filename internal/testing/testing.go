// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/snapmix/internal/models"
	"github.com/desertthunder/snapmix/internal/params"
	"golang.org/x/oauth2"
)

// PNGHeader is the smallest byte sequence sniffed as image/png.
var PNGHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// MockService is a test double for [services.Service]
type MockService struct {
	Profile  *models.Profile
	Top      []models.Track
	Recs     []models.Track
	Tok      *oauth2.Token
	ErrOn    map[string]error // keyed by method name
	AuthWith map[string]string
	Seeds    []string
	Params   params.Set

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockService) record(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
	return m.ErrOn[name]
}

// Calls reports how many times method name was invoked.
func (m *MockService) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.AuthWith = credentials
	if err := m.record("Authenticate"); err != nil {
		return err
	}
	if m.Tok == nil {
		m.Tok = &oauth2.Token{AccessToken: "mock-token"}
	}
	return nil
}

func (m *MockService) UseToken(ctx context.Context, token *oauth2.Token) error {
	if err := m.record("UseToken"); err != nil {
		return err
	}
	m.Tok = token
	return nil
}

func (m *MockService) Token() (*oauth2.Token, error) {
	if m.Tok == nil {
		return nil, errors.New("not authenticated")
	}
	return m.Tok, nil
}

func (m *MockService) GetAuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockService) UserProfile(ctx context.Context) (*models.Profile, error) {
	if err := m.record("UserProfile"); err != nil {
		return nil, err
	}
	return m.Profile, nil
}

func (m *MockService) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	if err := m.record("TopTracks"); err != nil {
		return nil, err
	}
	return m.Top, nil
}

func (m *MockService) Recommendations(ctx context.Context, seeds []string, p params.Set) ([]models.Track, error) {
	m.Seeds, m.Params = seeds, p
	if err := m.record("Recommendations"); err != nil {
		return nil, err
	}
	return m.Recs, nil
}

func (m *MockService) Name() string { return "mock" }

// MockAnalyzer is a test double for [services.Analyzer]
type MockAnalyzer struct {
	Text   string
	Err    error
	Tokens []string
}

func (m *MockAnalyzer) Analyze(ctx context.Context, token string) (string, error) {
	m.Tokens = append(m.Tokens, token)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// WriteImage writes a tiny PNG into t's temp dir and returns its path.
func WriteImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, PNGHeader, 0o644); err != nil {
		t.Fatalf("Failed to write image %s: %v", path, err)
	}
	return path
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
