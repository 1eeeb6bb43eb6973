package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/shinji-kodama/devserve/internal/model"
)

// ErrAddrInUse reports that the listen address was still occupied.
var ErrAddrInUse = errors.New("address already in use")

// readHeaderTimeout bounds slow clients; there is no body timeout because
// large files may legitimately take a while on a slow link.
const readHeaderTimeout = 10 * time.Second

// Handler builds the static file handler for dir with no-cache headers and
// access logging.
func Handler(dir string, logger model.Logger) http.Handler {
	return AccessLog(logger, NoCache(http.FileServer(http.Dir(dir))))
}

// Server is a static file server bound to one address.
type Server struct {
	addr     string
	srv      *http.Server
	listener net.Listener
	logger   model.Logger
}

// New creates a Server for host:port serving dir. Nothing is bound until
// Listen is called.
func New(host string, port int, dir string, logger model.Logger) *Server {
	return &Server{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		srv: &http.Server{
			Handler:           Handler(dir, logger),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		logger: logger,
	}
}

// Listen binds the TCP listener. An occupied port yields an error wrapping
// ErrAddrInUse; any other failure (e.g. permission denied on a privileged
// port) is returned as is.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		if errors.Is(err, unix.EADDRINUSE) {
			return fmt.Errorf("listen %s: %w: %w", s.addr, ErrAddrInUse, err)
		}
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen succeeded.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve handles requests until ctx is cancelled. Cancellation closes the
// listener and every open connection immediately; in-flight requests are
// not drained. A cancelled ctx is a clean stop and returns nil.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("server: Serve called before Listen")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = s.srv.Close()
		case <-done:
		}
	}()

	err := s.srv.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
