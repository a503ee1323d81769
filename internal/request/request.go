package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yanshuy/lambda-http/internal/headers"
)

type RequestLine struct {
	Method      string
	Target      string
	HttpVersion string
}

// Request is built once per connection. Only RequestFromReader fills Body.
type Request struct {
	*RequestLine
	Path  string
	Query map[string]string
	headers.Headers
	ContentLength int
	Body          []byte
}

func NewRequest(line *RequestLine) *Request {
	path, query := ParseTarget(line.Target)
	return &Request{
		RequestLine: line,
		Path:        path,
		Query:       query,
		Headers:     headers.NewHeaders(),
	}
}

// Value returns the query parameter name, or "" when absent.
func (r *Request) Value(name string) string {
	return r.Query[name]
}

func (r *Request) Lookup(name string) (string, bool) {
	v, ok := r.Query[name]
	return v, ok
}

type parseState int

const (
	StateStart parseState = iota
	StateHeaders
	StateBody
	StateDone
)

// Reader reads one request from a connection in three steps: request line,
// headers, and an optional body of a caller-supplied length.
type Reader struct {
	r       *bufio.Reader
	state   parseState
	maxBody int
}

// DefaultMaxBodySize is the largest body ReadBody accepts unless
// SetMaxBodySize says otherwise.
const DefaultMaxBodySize = 1 << 20

func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, state: StateStart, maxBody: DefaultMaxBodySize}
}

// SetMaxBodySize caps the length ReadBody will allocate. Values below 1
// keep the current cap.
func (rr *Reader) SetMaxBodySize(n int) {
	if n > 0 {
		rr.maxBody = n
	}
}

// ReadRequestLine returns io.EOF untouched when the peer closed the
// connection before sending anything.
func (rr *Reader) ReadRequestLine() (*RequestLine, error) {
	if rr.state != StateStart {
		return nil, ErrOutOfOrder
	}
	line, err := rr.readLine()
	if err != nil {
		return nil, err
	}
	reqLine, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}
	rr.state = StateHeaders
	return reqLine, nil
}

// ReadHeaders consumes header lines up to and including the blank line.
// Malformed lines are skipped. The returned length is taken from the last
// well-formed "Content-Length:" line and defaults to 0.
func (rr *Reader) ReadHeaders() (headers.Headers, int, error) {
	if rr.state != StateHeaders {
		return nil, 0, ErrOutOfOrder
	}
	h := headers.NewHeaders()
	contentLength := 0
	for {
		line, err := rr.readLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		if line == "" {
			break
		}
		if n, ok := headers.ParseContentLength(line); ok {
			contentLength = n
		}
		_ = h.ParseHeaderLine(line)
	}
	rr.state = StateBody
	return h, contentLength, nil
}

// ReadBody reads exactly n bytes following the headers. A length above the
// cap fails with ErrBodyTooLarge before anything is allocated or read.
func (rr *Reader) ReadBody(n int) ([]byte, error) {
	if rr.state != StateBody {
		return nil, ErrOutOfOrder
	}
	if n < 0 || n > rr.maxBody {
		return nil, fmt.Errorf("%w: %d > %d", ErrBodyTooLarge, n, rr.maxBody)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(rr.r, body); err != nil {
		return nil, fmt.Errorf("reading %d byte body: %w", n, err)
	}
	rr.state = StateDone
	return body, nil
}

// DiscardBody skips up to n body bytes so the peer is not reset when the
// connection closes with unread input.
func (rr *Reader) DiscardBody(n int) error {
	if rr.state != StateBody {
		return ErrOutOfOrder
	}
	rr.state = StateDone
	if _, err := io.CopyN(io.Discard, rr.r, int64(n)); err != nil {
		return fmt.Errorf("discarding %d byte body: %w", n, err)
	}
	return nil
}

// ReadRequest reads the request line and headers but leaves the body
// unread.
func (rr *Reader) ReadRequest() (*Request, error) {
	line, err := rr.ReadRequestLine()
	if err != nil {
		return nil, err
	}
	req := NewRequest(line)
	req.Headers, req.ContentLength, err = rr.ReadHeaders()
	if err != nil {
		return nil, err
	}
	return req, nil
}

// RequestFromReader reads a whole request, body included.
func RequestFromReader(reader io.Reader) (*Request, error) {
	rr := NewReader(reader)
	req, err := rr.ReadRequest()
	if err != nil {
		return nil, err
	}
	req.Body, err = rr.ReadBody(req.ContentLength)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// readLine accepts both CRLF and bare LF endings. A final line cut short
// by EOF is still returned.
func (rr *Reader) readLine() (string, error) {
	line, err := rr.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func parseRequestLine(line string) (*RequestLine, error) {
	parts := strings.Split(line, " ")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}

	reqLine := &RequestLine{
		Method: parts[0],
		Target: parts[1],
	}
	if len(parts) > 2 {
		reqLine.HttpVersion = strings.TrimPrefix(parts[2], "HTTP/")
	}
	return reqLine, nil
}

var (
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrOutOfOrder           = errors.New("request parts read out of order")
	ErrBodyTooLarge         = errors.New("request body too large")
)
