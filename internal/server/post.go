package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/yanshuy/lambda-http/internal/headers"
	"github.com/yanshuy/lambda-http/internal/request"
	"github.com/yanshuy/lambda-http/internal/response"
	"github.com/yanshuy/lambda-http/internal/store"
)

const (
	namePrefix = `{"name":"`
	nameSuffix = `"}`
)

// ExtractName strips the literal {"name":" prefix and "} suffix from body.
// It is not a JSON parser: anything else passes through mostly intact.
func ExtractName(body string) string {
	return strings.TrimSuffix(strings.TrimPrefix(body, namePrefix), nameSuffix)
}

func (s *Server) servePost(rw *response.Writer, rr *request.Reader, req *request.Request) error {
	if req.Path != s.cfg.UpdateNamePath {
		s.logger.Println("endpoint not found:", req.Path)
		if req.ContentLength <= s.cfg.MaxBodyBytes {
			if err := rr.DiscardBody(req.ContentLength); err != nil {
				s.logger.Println(err)
			}
		}
		return writeEmpty(rw, http.StatusNotFound)
	}

	if req.ContentLength > s.cfg.MaxBodyBytes {
		if err := writeEmpty(rw, http.StatusRequestEntityTooLarge); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, req.ContentLength, s.cfg.MaxBodyBytes)
	}

	body, err := rr.ReadBody(req.ContentLength)
	if err != nil {
		if werr := writeEmpty(rw, http.StatusInternalServerError); werr != nil {
			return werr
		}
		return err
	}
	name := ExtractName(string(body))
	s.data.Set(store.NameKey, name)
	s.logger.Println("name updated:", name)

	rw.Headers().Set(headers.ContentType, lambdaContentType)
	return writeEmpty(rw, http.StatusOK)
}

var ErrBodyTooLarge = request.ErrBodyTooLarge
