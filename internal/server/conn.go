package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yanshuy/lambda-http/internal/headers"
	"github.com/yanshuy/lambda-http/internal/request"
	"github.com/yanshuy/lambda-http/internal/response"
	"github.com/yanshuy/lambda-http/internal/router"
	"github.com/yanshuy/lambda-http/internal/static"
)

// Dynamic routes always answer with this type, even for plain text bodies.
const lambdaContentType = "application/json"

// ServeConn reads one request from r and writes one response to w. A nil
// error means a complete response was written, or the peer sent nothing.
// A panicking handler is turned into an error, and into a 500 when nothing
// had been written yet.
func (s *Server) ServeConn(r io.Reader, w io.Writer) (err error) {
	rr := request.NewReader(r)
	rr.SetMaxBodySize(s.cfg.MaxBodyBytes)
	rw := response.NewResponseWriter(w)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, p)
			if werr := abortResponse(rw); werr != nil {
				s.logger.Println("writing 500 after panic:", werr)
			}
		}
	}()

	req, err := rr.ReadRequest()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if errors.Is(err, request.ErrMalformedRequestLine) {
		if werr := writeEmpty(rw, http.StatusBadRequest); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return fmt.Errorf("reading request: %w", err)
	}

	s.logger.Println(req.Method, req.Target)
	if req.Path == "/" {
		req.Path = s.cfg.DefaultDocument
	}

	switch req.Method {
	case "GET":
		return s.serveGet(rw, req)
	case "POST":
		return s.servePost(rw, rr, req)
	default:
		return writeEmpty(rw, http.StatusNotImplemented)
	}
}

func (s *Server) serveGet(rw *response.Writer, req *request.Request) error {
	if h, ok := s.routes.Lookup(req.Path); ok {
		return s.serveLambda(rw, req, h)
	}

	err := s.files.ServeFile(rw, req.Path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, static.ErrNotFound):
		s.logger.Println("not found:", req.Path)
		return writeEmpty(rw, http.StatusNotFound)
	case rw.State() == response.StateInitial:
		if werr := abortResponse(rw); werr != nil {
			return werr
		}
		return err
	default:
		// the 200 status line is already out; closing is all that is left
		return err
	}
}

func (s *Server) serveLambda(rw *response.Writer, req *request.Request, h router.Handler) error {
	rw.Headers().Set(headers.ContentType, lambdaContentType)
	body, err := h.ServeLambda(rw, req)
	if err != nil {
		err = fmt.Errorf("handler %s: %w", req.Path, err)
		if werr := abortResponse(rw); werr != nil {
			return werr
		}
		return err
	}

	if rw.State() < response.StateWroteHeader {
		if _, ok := rw.Headers().Get(headers.ContentLength); !ok {
			rw.SetContentLength(len(body))
		}
	}
	if _, err := rw.WriteString(body); err != nil {
		return err
	}
	return rw.Finish()
}

// writeEmpty sends a status line and headers with an empty body.
func writeEmpty(rw *response.Writer, statusCode int) error {
	rw.SetContentLength(0)
	if err := rw.WriteHeader(statusCode); err != nil {
		return err
	}
	return rw.Finish()
}

// abortResponse answers 500 when nothing was sent yet, and completes the
// header block when a handler wrote only its status line. Once headers are
// out there is nothing left to fix.
func abortResponse(rw *response.Writer) error {
	switch rw.State() {
	case response.StateInitial:
		rw.Headers().Del(headers.ContentType)
		return writeEmpty(rw, http.StatusInternalServerError)
	case response.StateWroteStatus:
		rw.SetContentLength(0)
		return rw.Finish()
	}
	return nil
}

var ErrHandlerPanic = errors.New("handler panicked")
