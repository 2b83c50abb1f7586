package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/desertthunder/snapmix/internal/shared"
)

// CallbackResult carries the authorization code, or the reason there is none.
type CallbackResult struct {
	Code string
	Err  error
}

var callbackPage = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: {{.Color}}; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

type page struct {
	Title   string
	Message string
	Color   string
}

// CallbackHandler receives the Spotify redirect and hands the authorization code to the CLI.
//
// The code exchange happens in the caller; this handler never sees client secrets.
// Only the first callback is processed.
type CallbackHandler struct {
	path    string
	state   string
	results chan CallbackResult
	once    sync.Once
	mu      sync.Mutex
	hit     bool
}

// NewCallbackHandler serves path and accepts only callbacks carrying state.
func NewCallbackHandler(path, state string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:    path,
		state:   state,
		results: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(CallbackResult{Err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		render(w, http.StatusBadRequest, page{"Authorization Failed", "Invalid state parameter.", "#e22134"})
		return
	}

	if e := q.Get("error"); e != "" {
		h.send(CallbackResult{Err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, e)})
		render(w, http.StatusBadRequest, page{"Authorization Failed", "Spotify reported: " + e, "#e22134"})
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(CallbackResult{Err: fmt.Errorf("%w: missing authorization code", shared.ErrAuthFailed)})
		render(w, http.StatusBadRequest, page{"Authorization Failed", "No authorization code was returned.", "#e22134"})
		return
	}

	h.send(CallbackResult{Code: code})
	render(w, http.StatusOK, page{"✓ Authorization Successful", "You can close this window and return to the terminal.", "#1DB954"})
}

func render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = callbackPage.Execute(w, p)
}

func (h *CallbackHandler) send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel that receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}
