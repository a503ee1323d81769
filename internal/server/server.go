package server

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanshuy/lambda-http/internal/router"
	"github.com/yanshuy/lambda-http/internal/static"
	"github.com/yanshuy/lambda-http/internal/store"
)

type Server struct {
	listener net.Listener
	cfg      Config
	routes   *router.Router
	data     *store.Store
	files    *static.FileServer
	logger   *log.Logger

	// sem is nil when connections are handled one at a time.
	sem    chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool
}

// New builds a server that owns nothing but its configuration; routes and
// data are shared with the caller.
func New(cfg Config, routes *router.Router, data *store.Store) *Server {
	cfg = cfg.withDefaults()
	s := &Server{
		cfg:    cfg,
		routes: routes,
		data:   data,
		files:  static.NewFileServer(cfg.StaticDir),
		logger: cfg.Logger,
	}
	if cfg.MaxConcurrent > 1 {
		s.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	return s
}

// Serve listens on cfg.Addr and accepts connections in the background.
// A listen failure is the only error that reaches the caller.
func Serve(cfg Config, routes *router.Router, data *store.Store) (*Server, error) {
	s := New(cfg, routes, data)
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.Start(ln)
	return s, nil
}

// Start accepts connections from ln until Close is called.
func (s *Server) Start(ln net.Listener) {
	s.listener = ln
	s.wg.Add(1)
	go s.listen()
}

// Addr is nil until Start is called.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) listen() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if s.closed.Load() {
			if conn != nil {
				conn.Close()
			}
			return
		}
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Println("error accepting connection", err)
			continue
		}
		s.logger.Println("connection accepted from", conn.RemoteAddr())

		if s.sem == nil {
			s.handleConnection(conn)
			continue
		}
		s.sem <- struct{}{}
		s.wg.Add(1)
		go func() {
			defer func() {
				<-s.sem
				s.wg.Done()
			}()
			s.handleConnection(conn)
		}()
	}
}

// Close stops accepting and waits for connections already being handled.
func (s *Server) Close() error {
	s.closed.Store(true)
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.wg.Wait()
	return err
}

// handleConnection serves one request and always closes conn. Failures,
// panicking handlers included, are logged and never stop the server.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			s.logger.Println("set read deadline", err)
			return
		}
	}

	if err := s.ServeConn(conn, conn); err != nil {
		s.logger.Println("connection", conn.RemoteAddr(), err)
	}
}
