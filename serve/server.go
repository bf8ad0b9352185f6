// Package serve implements the "I serve the directory {dir}" instruction
// (spec.md 4.2): binding an ephemeral listener and serving a directory tree
// over HTTP for the duration of one test. It follows the teacher's
// addons.Addon{Start, Stop} lifecycle shape (addons/addons.go), generalized
// here from a devnet faucet sidecar to any per-test background resource.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/toolproof/toolproof/types"
)

// Server is one bound file server, owned exclusively by the test that
// started it (spec.md 5: "one per test max"). It is torn down at test end
// regardless of outcome.
type Server struct {
	listener net.Listener
	http     *http.Server
	dir      string
}

// Start binds 127.0.0.1:0 and begins serving dir in the background. The
// returned Server's Port() is immediately valid.
func Start(dir string) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, types.NewStepError(types.ErrServeBindFailed, "", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))

	srv := &Server{
		listener: listener,
		http:     &http.Server{Handler: mux},
		dir:      dir,
	}

	go func() {
		// http.ErrServerClosed is the expected outcome of Stop; anything
		// else would indicate a bug in the listener setup, but there is no
		// step-level caller left to report it to once the accept loop is
		// backgrounded (spec.md 5: "background task").
		_ = srv.http.Serve(listener)
	}()

	return srv, nil
}

// Port returns the bound ephemeral TCP port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Stop shuts the server down, waiting up to two seconds for in-flight
// requests to finish and then closing any connections still open
// (spec.md 9: "forces kill after a short grace").
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.http.Close()
		return fmt.Errorf("shutting down file server: %w", err)
	}
	return nil
}
