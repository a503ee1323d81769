package server

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanshuy/lambda-http/internal/request"
	"github.com/yanshuy/lambda-http/internal/response"
	"github.com/yanshuy/lambda-http/internal/router"
	"github.com/yanshuy/lambda-http/internal/services"
	"github.com/yanshuy/lambda-http/internal/store"
)

type parsed struct {
	statusLine string
	headers    map[string]string
	body       string
}

func parseHTTP(raw []byte) parsed {
	parts := strings.SplitN(string(raw), "\r\n\r\n", 2)
	p := parsed{headers: map[string]string{}}
	if len(parts) == 0 || parts[0] == "" {
		return p
	}
	lines := strings.Split(parts[0], "\r\n")
	p.statusLine = lines[0]
	for _, ln := range lines[1:] {
		kv := strings.SplitN(ln, ":", 2)
		if len(kv) != 2 {
			continue
		}
		p.headers[strings.ToLower(strings.TrimSpace(kv[0]))] = strings.TrimSpace(kv[1])
	}
	if len(parts) == 2 {
		p.body = parts[1]
	}
	return p
}

type fixture struct {
	srv    *Server
	routes *router.Router
	data   *store.Store
	root   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>index</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "styles.css"), []byte("body { color: red; }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "script.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "img.jpg"), []byte{0xff, 0xd8, 0x00, 0x0d, 0x0a}, 0o644))

	routes, data := router.New(), store.New()
	services.Register(routes, data)

	cfg := DefaultConfig()
	cfg.StaticDir = root
	cfg.Logger = log.New(io.Discard, "", 0)
	return &fixture{
		srv:    New(cfg, routes, data),
		routes: routes,
		data:   data,
		root:   root,
	}
}

func (f *fixture) do(t *testing.T, raw string) (parsed, error) {
	t.Helper()
	var out bytes.Buffer
	err := f.srv.ServeConn(strings.NewReader(raw), &out)
	return parseHTTP(out.Bytes()), err
}

func get(target string) string {
	return "GET " + target + " HTTP/1.1\r\nHost: localhost\r\n\r\n"
}

func post(target, body string) string {
	return "POST " + target + " HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n" + body
}

func TestGetLambdaRoute(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, get("/App/hello?name=Sofia"))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
	assert.Equal(t, "application/json", p.headers["content-type"])
	assert.Equal(t, "close", p.headers["connection"])
	assert.Equal(t, `{"name": "Sofia"}`, p.body)
	assert.Equal(t, strconv.Itoa(len(p.body)), p.headers["content-length"])

	p, err = f.do(t, get("/App/pi"))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
	assert.Equal(t, "3.141592653589793", p.body)

	// plain text bodies still carry the JSON content type
	p, err = f.do(t, get("/App/mundo"))
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.headers["content-type"])
	assert.Equal(t, "Hola mundo", p.body)
}

func TestGetStaticFiles(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		target      string
		file        string
		contentType string
	}{
		{"/index.html", "index.html", "text/html"},
		{"/", "index.html", "text/html"},
		{"/styles.css", "styles.css", "text/css"},
		{"/script.js?v=3", "script.js", "application/javascript"},
		{"/img.jpg", "img.jpg", "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			p, err := f.do(t, get(tt.target))
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(f.root, tt.file))
			require.NoError(t, err)

			assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
			assert.Equal(t, tt.contentType, p.headers["content-type"])
			assert.Equal(t, string(want), p.body)
		})
	}
}

func TestGetNotFound(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/App/noExiste", "/missing.png", "/../../etc/passwd"} {
		p, err := f.do(t, get(target))
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 404 Not Found", p.statusLine, target)
		assert.Equal(t, "", p.body, target)
	}
}

func TestRouteShadowsStaticFile(t *testing.T) {
	f := newFixture(t)
	f.routes.HandleFunc("/styles.css", func(w *response.Writer, r *request.Request) (string, error) {
		return "dynamic", nil
	})

	p, err := f.do(t, get("/styles.css"))
	require.NoError(t, err)
	assert.Equal(t, "application/json", p.headers["content-type"])
	assert.Equal(t, "dynamic", p.body)
}

func TestStaticIdempotent(t *testing.T) {
	f := newFixture(t)

	var first, second bytes.Buffer
	require.NoError(t, f.srv.ServeConn(strings.NewReader(get("/index.html")), &first))
	require.NoError(t, f.srv.ServeConn(strings.NewReader(get("/index.html")), &second))
	assert.Equal(t, first.String(), second.String())
}

func TestPostUpdateName(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, post("/App/updateName", `{"name":"Sofia"}`))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
	assert.Equal(t, "application/json", p.headers["content-type"])
	assert.Equal(t, "", p.body)

	name, ok := f.data.Get("name")
	require.True(t, ok)
	assert.Equal(t, "Sofia", name)

	// the stored name feeds the hello route
	p, err = f.do(t, get("/App/hello"))
	require.NoError(t, err)
	assert.Contains(t, p.body, "Sofia")
}

func TestPostMalformedEnvelope(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, post("/App/updateName", `{"nombre": "Sofia"}`))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
	name, _ := f.data.Get("name")
	assert.Equal(t, `{"nombre": "Sofia`, name)
}

func TestPostWithoutContentLength(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, "POST /App/updateName HTTP/1.1\r\nHost: x\r\n\r\n")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
	name, ok := f.data.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "", name)
}

func TestPostUnknownPath(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, post("/App/hello", `{"name":"Sofia"}`))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 404 Not Found", p.statusLine)
	assert.Equal(t, 0, f.data.Len())
}

func TestPostBodyTooLarge(t *testing.T) {
	f := newFixture(t)
	f.srv.cfg.MaxBodyBytes = 8

	p, err := f.do(t, post("/App/updateName", `{"name":"Sofia"}`))
	assert.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Equal(t, "HTTP/1.1 413 Request Entity Too Large", p.statusLine)
	assert.Equal(t, 0, f.data.Len())
}

func TestPostTruncatedBody(t *testing.T) {
	f := newFixture(t)

	raw := "POST /App/updateName HTTP/1.1\r\nContent-Length: 40\r\n\r\n" + `{"name":"Sofia"}`
	p, err := f.do(t, raw)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "HTTP/1.1 500 Internal Server Error", p.statusLine)
	assert.Equal(t, 0, f.data.Len())
}

func TestUnsupportedMethod(t *testing.T) {
	f := newFixture(t)

	for _, method := range []string{"PUT", "DELETE", "HEAD", "get"} {
		p, err := f.do(t, method+" /index.html HTTP/1.1\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "HTTP/1.1 501 Not Implemented", p.statusLine, method)
	}
}

func TestMalformedRequestLine(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, "GARBAGE\r\n\r\n")
	assert.ErrorIs(t, err, request.ErrMalformedRequestLine)
	assert.Equal(t, "HTTP/1.1 400 Bad Request", p.statusLine)
}

func TestEmptyConnection(t *testing.T) {
	f := newFixture(t)

	var out bytes.Buffer
	require.NoError(t, f.srv.ServeConn(strings.NewReader(""), &out))
	assert.Empty(t, out.String())
}

func TestHandlerError(t *testing.T) {
	f := newFixture(t)

	p, err := f.do(t, get("/App/suma?a=x&b=1"))
	require.Error(t, err)
	assert.Equal(t, "HTTP/1.1 500 Internal Server Error", p.statusLine)
	_, hasCT := p.headers["content-type"]
	assert.False(t, hasCT)
}

func TestHandlerOverridesStatus(t *testing.T) {
	f := newFixture(t)
	f.routes.HandleFunc("/App/teapot", func(w *response.Writer, r *request.Request) (string, error) {
		w.Headers().Set("Content-Type", "text/plain")
		if err := w.WriteStatus(http.StatusTeapot); err != nil {
			return "", err
		}
		return "short and stout", nil
	})

	p, err := f.do(t, get("/App/teapot"))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 418 I'm a teapot", p.statusLine)
	assert.Equal(t, "text/plain", p.headers["content-type"])
	assert.Equal(t, "short and stout", p.body)
}

func TestHandlerStreamsBody(t *testing.T) {
	f := newFixture(t)
	f.routes.HandleFunc("/App/stream", func(w *response.Writer, r *request.Request) (string, error) {
		if _, err := w.WriteString("part one, "); err != nil {
			return "", err
		}
		return "part two", nil
	})

	p, err := f.do(t, get("/App/stream"))
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 200 OK", p.statusLine)
	_, hasCL := p.headers["content-length"]
	assert.False(t, hasCL)
	assert.Equal(t, "part one, part two", p.body)
}

func TestHandlerErrorAfterStatus(t *testing.T) {
	f := newFixture(t)
	f.routes.HandleFunc("/App/accepted", func(w *response.Writer, r *request.Request) (string, error) {
		if err := w.WriteStatus(http.StatusAccepted); err != nil {
			return "", err
		}
		return "", errors.New("queue full")
	})

	var out bytes.Buffer
	err := f.srv.ServeConn(strings.NewReader(get("/App/accepted")), &out)
	require.Error(t, err)
	assert.Equal(t, "HTTP/1.1 202 Accepted\r\n"+
		"Connection: close\r\n"+
		"Content-Length: 0\r\n"+
		"Content-Type: application/json\r\n"+
		"\r\n", out.String())
}

func TestHandlerPanic(t *testing.T) {
	f := newFixture(t)
	f.routes.HandleFunc("/App/panic", func(w *response.Writer, r *request.Request) (string, error) {
		panic("boom")
	})
	f.routes.HandleFunc("/App/panicLate", func(w *response.Writer, r *request.Request) (string, error) {
		w.WriteStatus(http.StatusOK)
		panic("boom")
	})

	p, err := f.do(t, get("/App/panic"))
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.Equal(t, "HTTP/1.1 500 Internal Server Error", p.statusLine)
	assert.Equal(t, "0", p.headers["content-length"])

	var out bytes.Buffer
	err = f.srv.ServeConn(strings.NewReader(get("/App/panicLate")), &out)
	assert.ErrorIs(t, err, ErrHandlerPanic)
	assert.True(t, strings.HasPrefix(out.String(), "HTTP/1.1 200 OK\r\n"))
	assert.True(t, strings.HasSuffix(out.String(), "Content-Length: 0\r\nContent-Type: application/json\r\n\r\n"))
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestWriteFailureIsReturned(t *testing.T) {
	f := newFixture(t)

	err := f.srv.ServeConn(strings.NewReader(get("/App/pi")), brokenWriter{})
	assert.Error(t, err)
}

func TestExtractName(t *testing.T) {
	assert.Equal(t, "Sofia", ExtractName(`{"name":"Sofia"}`))
	assert.Equal(t, "", ExtractName(`{"name":""}`))
	assert.Equal(t, "Sofia", ExtractName(`Sofia`))
	assert.Equal(t, `{"name": "Sofia`, ExtractName(`{"name": "Sofia"}`))
}
