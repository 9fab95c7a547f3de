// Package preview serves one report document from a locally bound,
// ephemeral HTTP listener and opens the user's browser at it.
//
// Sessions are tracked in an explicit Registry owned by the
// composition root — there is no package-level global — so concurrent
// launches in one process never collide on a port and process shutdown
// can close everything it started.
package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
)

// configGlobal is the well-known variable the served page reads its
// initial state from, synchronously, before any other script runs.
const configGlobal = "__DOCSIGHT_CONFIG__"

// DefaultPort is where port probing starts when the caller has no
// preference.
const DefaultPort = 3810

// mimeTypes maps asset extensions to content types. Unknown extensions
// fall back to a generic binary type.
var mimeTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".js":    "application/javascript",
	".css":   "text/css",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".svg":   "image/svg+xml",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// Registry tracks the active sessions of one process, keyed by port.
// All mutation happens under the mutex in short read-modify steps tied
// to bind and close events.
type Registry struct {
	buildRoot string
	openURL   func(url string) error

	mu       sync.Mutex
	sessions map[int]*Session
}

// NewRegistry creates a registry. buildRoot is where pre-built report
// documents and their assets live; it may be empty, in which case only
// custom HTML (or the synthesized error page) is served.
func NewRegistry(buildRoot string) *Registry {
	return &Registry{
		buildRoot: buildRoot,
		openURL:   browser.OpenURL,
		sessions:  make(map[int]*Session),
	}
}

// LaunchOptions configure one preview session.
type LaunchOptions struct {
	// App identifies the pre-built document to serve ("dashboard",
	// "schema", ...). Ignored when CustomHTML is set.
	App string
	// Config is serialized to JSON and injected into the served page.
	Config any
	// PreferredPort is where port probing starts; 0 means DefaultPort.
	PreferredPort int
	// AutoClose > 0 arranges a one-shot self-shutdown after the
	// duration elapses.
	AutoClose time.Duration
	// CustomHTML, when non-empty, is served verbatim (no injection).
	CustomHTML string
	// NoBrowser suppresses the open-default-browser side effect.
	NoBrowser bool
}

// Session is one live preview: a bound listener serving one injected
// document until closed or timed out. Once closed it never listens
// again.
type Session struct {
	ID   string
	Port int
	URL  string

	reg       *Registry
	html      []byte
	assetsDir string
	srv       *http.Server
	closeOnce sync.Once
	timerMu   sync.Mutex
	timer     *time.Timer
}

// Launch binds a listener, registers the session, serves the resolved
// document, and opens the browser (best effort). Port selection probes
// upward from the preferred port, skipping ports the registry already
// tracks; an address-in-use at bind time gets exactly one more try at
// port+1 before the launch fails.
func (r *Registry) Launch(opts LaunchOptions) (*Session, error) {
	html := r.resolveContent(opts)

	s := &Session{
		ID:        uuid.NewString(),
		reg:       r,
		html:      html,
		assetsDir: filepath.Join(r.buildRoot, "dist", "assets"),
	}

	ln, port, err := r.bind(opts.PreferredPort)
	if err != nil {
		return nil, err
	}
	s.Port = port
	s.URL = fmt.Sprintf("http://127.0.0.1:%d", port)
	s.srv = &http.Server{Handler: s.handler()}
	r.register(s)

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("preview: server on port %d: %v", port, err)
		}
	}()

	if opts.AutoClose > 0 {
		s.timerMu.Lock()
		s.timer = time.AfterFunc(opts.AutoClose, func() {
			log.Printf("preview: auto-closing session on port %d", s.Port)
			_ = s.Close()
		})
		s.timerMu.Unlock()
	}

	if !opts.NoBrowser {
		if err := r.openURL(s.URL); err != nil {
			log.Printf("preview: opening browser: %v", err)
		}
	}
	return s, nil
}

// bind probes for a free port and registers the session slot under the
// lock, so two concurrent launches can't pick the same port.
func (r *Registry) bind(preferred int) (net.Listener, int, error) {
	if preferred <= 0 {
		preferred = DefaultPort
	}

	r.mu.Lock()
	port := preferred
	for {
		if _, taken := r.sessions[port]; !taken {
			break
		}
		port++
	}
	// Reserve before unlocking; replaced with the real session below.
	r.sessions[port] = nil
	r.mu.Unlock()

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		r.mu.Lock()
		delete(r.sessions, port)
		r.mu.Unlock()
		// One retry at port+1, only for an address already in use
		// outside this process. Any other bind failure (permissions,
		// exhausted descriptors) would fail there too.
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, 0, fmt.Errorf("binding preview port %d: %w", port, err)
		}
		retry := port + 1
		r.mu.Lock()
		if _, taken := r.sessions[retry]; taken {
			r.mu.Unlock()
			return nil, 0, fmt.Errorf("binding preview port %d: %w", port, err)
		}
		r.sessions[retry] = nil
		r.mu.Unlock()

		ln2, err2 := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", retry))
		if err2 != nil {
			r.mu.Lock()
			delete(r.sessions, retry)
			r.mu.Unlock()
			return nil, 0, fmt.Errorf("binding preview port %d: %w", port, err)
		}
		return ln2, retry, nil
	}
	return ln, port, nil
}

// register swaps the reserved slot for the live session.
func (r *Registry) register(s *Session) {
	r.mu.Lock()
	r.sessions[s.Port] = s
	r.mu.Unlock()
}

// ActivePorts lists the ports of live sessions, for diagnostics and
// tests.
func (r *Registry) ActivePorts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	ports := make([]int, 0, len(r.sessions))
	for p := range r.sessions {
		ports = append(ports, p)
	}
	return ports
}

// CloseAll closes every active session. Used for process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	open := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s != nil {
			open = append(open, s)
		}
	}
	r.mu.Unlock()

	for _, s := range open {
		_ = s.Close()
	}
}

// Close cancels any pending auto-close timer, stops the listener and
// deregisters the port. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.timerMu.Lock()
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timerMu.Unlock()

		err = s.srv.Close()

		s.reg.mu.Lock()
		delete(s.reg.sessions, s.Port)
		s.reg.mu.Unlock()
	})
	return err
}

// ─── Content resolution ──────────────────────────────────────────────

// resolveContent picks what the session serves: custom HTML verbatim;
// else the first existing pre-built document for the app (nested build
// output, flat build output, source location); else a minimal error
// page that still echoes the config payload for diagnosability.
func (r *Registry) resolveContent(opts LaunchOptions) []byte {
	if opts.CustomHTML != "" {
		return []byte(opts.CustomHTML)
	}

	payload, err := json.Marshal(opts.Config)
	if err != nil {
		payload = []byte(`{}`)
		log.Printf("preview: serializing config for %q: %v", opts.App, err)
	}

	candidates := []string{
		filepath.Join(r.buildRoot, "dist", opts.App, "index.html"),
		filepath.Join(r.buildRoot, "dist", opts.App+".html"),
		filepath.Join(r.buildRoot, "web", opts.App, "index.html"),
	}
	for _, path := range candidates {
		doc, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return injectConfig(doc, payload)
	}
	return errorPage(opts.App, payload)
}

// injectConfig inserts a script tag setting the well-known config
// global immediately after the opening <head> tag, so the page can
// read its initial state synchronously. Documents without a <head> get
// the tag prepended instead.
func injectConfig(doc, payload []byte) []byte {
	// Guard against the payload terminating the script element early.
	safe := strings.ReplaceAll(string(payload), "</", `<\/`)
	tag := fmt.Sprintf("<script>window.%s = %s;</script>", configGlobal, safe)

	html := string(doc)
	if i := strings.Index(html, "<head>"); i >= 0 {
		at := i + len("<head>")
		return []byte(html[:at] + tag + html[at:])
	}
	return []byte(tag + html)
}

func errorPage(app string, payload []byte) []byte {
	escaper := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return fmt.Appendf(nil,
		`<!DOCTYPE html><html><head><title>docsight</title></head><body>
<h1>Report UI not built</h1>
<p>No pre-built document found for %q. Run the web build, or use the Markdown output.</p>
<pre>%s</pre>
</body></html>`,
		escaper.Replace(app), escaper.Replace(string(payload)))
}

// ─── HTTP surface ────────────────────────────────────────────────────

func (s *Session) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		switch {
		case path == "/" || path == "/index.html":
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write(s.html)

		case strings.Contains(path, "/assets/"):
			s.serveAsset(w, path)

		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})
}

// serveAsset rewrites any path containing /assets/ to the build
// output's assets directory. Missing files are a plain 404, never a
// panic, and traversal out of the assets dir is rejected.
func (s *Session) serveAsset(w http.ResponseWriter, path string) {
	_, rel, _ := strings.Cut(path, "/assets/")
	rel = filepath.Clean("/" + rel) // collapses any ".." segments
	file := filepath.Join(s.assetsDir, rel)

	data, err := os.ReadFile(file)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	ct, ok := mimeTypes[strings.ToLower(filepath.Ext(file))]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}
