package router

import (
	"sort"
	"sync"

	"github.com/yanshuy/lambda-http/internal/request"
	"github.com/yanshuy/lambda-http/internal/response"
)

// Handler produces the body of a GET response. Implementations may set
// headers or a status through w before returning; when they do not, the
// caller answers 200 with a JSON content type and the returned body.
type Handler interface {
	ServeLambda(w *response.Writer, r *request.Request) (string, error)
}

type HandlerFunc func(w *response.Writer, r *request.Request) (string, error)

func (f HandlerFunc) ServeLambda(w *response.Writer, r *request.Request) (string, error) {
	return f(w, r)
}

// Router maps exact paths to handlers. Matching ignores the method and
// does no prefix or pattern matching.
type Router struct {
	mu     sync.RWMutex
	routes map[string]Handler
}

func New() *Router {
	return &Router{routes: make(map[string]Handler)}
}

// Register adds or replaces the handler for path.
func (rt *Router) Register(path string, handler Handler) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.routes[path] = handler
}

func (rt *Router) HandleFunc(path string, f HandlerFunc) {
	rt.Register(path, f)
}

func (rt *Router) Lookup(path string) (Handler, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	h, ok := rt.routes[path]
	return h, ok
}

// Paths lists the registered paths in sorted order.
func (rt *Router) Paths() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	paths := make([]string, 0, len(rt.routes))
	for p := range rt.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
