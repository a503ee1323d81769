package response

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/yanshuy/lambda-http/internal/headers"
)

type WriteState int

const (
	StateInitial WriteState = iota
	StateWroteStatus
	StateWroteHeader
)

// Writer writes one response straight to the connection. Without a
// Content-Length header the body is delimited by closing the connection.
type Writer struct {
	writer     io.Writer
	headers    headers.Headers
	state      WriteState
	statusCode int
	contentLen int
	written    int
}

func NewResponseWriter(w io.Writer) *Writer {
	return &Writer{
		writer:     w,
		headers:    DefaultHeaders(),
		state:      StateInitial,
		contentLen: -1,
	}
}

// Headers can be modified until the first body byte is written.
func (w *Writer) Headers() headers.Headers {
	return w.headers
}

func (w *Writer) State() WriteState {
	return w.state
}

// StatusCode is 0 until a status line has been written.
func (w *Writer) StatusCode() int {
	return w.statusCode
}

func (w *Writer) upgradeWriteState(ws WriteState) error {
	for w.state < ws {
		switch w.state {
		case StateInitial:
			if err := w.WriteStatus(http.StatusOK); err != nil {
				return err
			}
		case StateWroteStatus:
			if err := w.writeHeaders(); err != nil {
				return err
			}
		}
	}
	return nil
}

// writes status directly to the connection
func (w *Writer) WriteStatus(statusCode int) error {
	if w.state >= StateWroteStatus {
		return ErrStatusAlreadyWritten
	}

	reason := http.StatusText(statusCode)
	if reason == "" {
		return fmt.Errorf("%w: %d", ErrBadStatusCode, statusCode)
	}

	w.state = StateWroteStatus
	w.statusCode = statusCode
	_, err := fmt.Fprintf(w.writer, "HTTP/1.1 %d %s\r\n", statusCode, reason)
	return err
}

func (w *Writer) writeHeaders() error {
	if contLenStr, ok := w.headers.Get(headers.ContentLength); ok {
		contLen, err := strconv.Atoi(contLenStr)
		if err != nil || contLen < 0 {
			return ErrInvalidContentLength
		}
		w.contentLen = contLen
	}

	hLines := []byte{}
	for _, key := range w.headers.Keys() {
		val, _ := w.headers.Get(key)
		hLines = fmt.Appendf(hLines, "%s: %s\r\n", key, val)
	}
	hLines = append(hLines, "\r\n"...)

	w.state = StateWroteHeader
	_, err := w.writer.Write(hLines)
	return err
}

// WriteHeader sends the status line and headers with no body.
func (w *Writer) WriteHeader(statusCode int) error {
	if err := w.WriteStatus(statusCode); err != nil {
		return err
	}
	return w.upgradeWriteState(StateWroteHeader)
}

// Write sends a 200 status line and the headers first if they are still
// pending.
func (w *Writer) Write(p []byte) (int, error) {
	if err := w.upgradeWriteState(StateWroteHeader); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if w.contentLen >= 0 && w.written+len(p) > w.contentLen {
		return 0, ErrWriteMoreThanContentLength
	}

	n, err := w.writer.Write(p)
	w.written += n
	return n, err
}

func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Finish flushes any pending status line and headers and reports
// io.ErrShortWrite if fewer body bytes were written than declared.
func (w *Writer) Finish() error {
	if err := w.upgradeWriteState(StateWroteHeader); err != nil {
		return err
	}
	if w.contentLen >= 0 && w.written != w.contentLen {
		return io.ErrShortWrite
	}
	return nil
}

// SetContentLength must be called before the headers are written.
func (w *Writer) SetContentLength(n int) {
	w.headers.Set(headers.ContentLength, strconv.Itoa(n))
}

func DefaultHeaders() headers.Headers {
	h := headers.NewHeaders()
	h.Set(headers.Connection, "close")
	return h
}

var (
	ErrStatusAlreadyWritten       = errors.New("status already written")
	ErrBadStatusCode              = errors.New("bad status code")
	ErrWriteMoreThanContentLength = errors.New("attempting to write more than content length")
	ErrInvalidContentLength       = errors.New("invalid content length")
)
