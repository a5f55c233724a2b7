package auth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v3"
)

// callbackServer captures the authorization code delivered to the loopback
// redirect URI during the interactive login flow.
type callbackServer struct {
	port          uint16
	expectedState string
	codeCh        chan string
	failCh        chan error

	server   *http.Server
	listener net.Listener
}

func newCallbackServer(port uint16, expectedState string) *callbackServer {
	return &callbackServer{
		port:          port,
		expectedState: expectedState,
		codeCh:        make(chan string, 1),
		failCh:        make(chan error, 1),
	}
}

// Start binds the loopback listener and serves in the background.
// Returns a channel for runtime errors and a startup error if any.
// The caller is responsible for calling Shutdown.
func (s *callbackServer) Start(ctx context.Context) (<-chan error, error) {
	// Startup phase: create the listener synchronously to catch
	// port-in-use errors immediately
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", s.handleCallback)

	s.server = &http.Server{
		Handler: applyMiddlewares(mux,
			requestLogging(slog.Default()),
			recovery,
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		err := s.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// RedirectURL returns the redirect URI registered with the provider.
// Valid only after Start (the listener resolves port 0 to a real port).
func (s *callbackServer) RedirectURL() string {
	return fmt.Sprintf("http://%s/callback", s.listener.Addr().String())
}

// handleCallback validates the provider redirect and hands the code over.
func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		s.fail(fmt.Errorf("authorization error: %s - %s", errParam, query.Get("error_description")))
		writePage(w, "Authorization failed", query.Get("error_description"))
		return
	}

	if state := query.Get("state"); state != s.expectedState {
		s.fail(fmt.Errorf("state mismatch on callback"))
		writePage(w, "Authorization failed", "Invalid state parameter.")
		return
	}

	code := query.Get("code")
	if code == "" {
		s.fail(fmt.Errorf("no authorization code received"))
		writePage(w, "Authorization failed", "No code received.")
		return
	}

	select {
	case s.codeCh <- code:
	default:
	}
	writePage(w, "Authorization received", "You can close this tab and return to the terminal.")
}

func (s *callbackServer) fail(err error) {
	select {
	case s.failCh <- err:
	default:
	}
}

// Wait blocks until an authorization code arrives, the provider reports an
// error, or ctx is done.
func (s *callbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case code := <-s.codeCh:
		return code, nil
	case err := <-s.failCh:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Shutdown performs graceful shutdown of the callback server.
func (s *callbackServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = s.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func writePage(w http.ResponseWriter, title, detail string) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, "<h2>%s</h2><p>%s</p>", html.EscapeString(title), html.EscapeString(detail))
}

// recovery recovers from panics in HTTP handlers and returns HTTP 500 to the client.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recover() != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				// Logging of panics is handled in the request logging middleware
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// requestLogging logs callback requests with method, path, status, and duration.
func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		// The callback query string carries the authorization code; never
		// log bodies or extra headers here.
		LogRequestHeaders:  []string{},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		RecoverPanics: false, // use dedicated middleware, panics are logged regardless
	})
}

// applyMiddlewares applies middlewares to a handler in the order they appear.
// The first middleware in the slice is the outermost (executes first).
func applyMiddlewares(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
