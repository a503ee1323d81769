// Package services holds the application routes served under /App.
package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/yanshuy/lambda-http/internal/request"
	"github.com/yanshuy/lambda-http/internal/response"
	"github.com/yanshuy/lambda-http/internal/router"
	"github.com/yanshuy/lambda-http/internal/store"
)

const DefaultName = "usuario"

// Register installs every /App route on rt. Routes that remember state
// read it from data.
func Register(rt *router.Router, data *store.Store) {
	rt.Register("/App/hello", Hello{Data: data})
	rt.HandleFunc("/App/pi", constant(formatFloat(math.Pi)))
	rt.HandleFunc("/App/euler", constant(formatFloat(math.E)))
	rt.HandleFunc("/App/mundo", constant("Hola mundo"))
	rt.HandleFunc("/App/greeting", Greeting)
	rt.HandleFunc("/App/greetings", Greetings)
	rt.HandleFunc("/App/suma", arithmetic("Suma", func(a, b float64) float64 { return a + b }))
	rt.HandleFunc("/App/resta", arithmetic("Resta", func(a, b float64) float64 { return a - b }))
}

// Hello greets the name given in the query, falling back to the stored
// name and then to DefaultName.
type Hello struct {
	Data *store.Store
}

func (h Hello) ServeLambda(w *response.Writer, r *request.Request) (string, error) {
	name := r.Value("name")
	if name == "" && h.Data != nil {
		name, _ = h.Data.Get(store.NameKey)
	}
	if name == "" {
		name = DefaultName
	}

	// name is echoed raw, without escaping
	return fmt.Sprintf(`{"name": "%s"}`, name), nil
}

func Greeting(w *response.Writer, r *request.Request) (string, error) {
	return fmt.Sprintf("Hola, %s!", nameOrDefault(r)), nil
}

func Greetings(w *response.Writer, r *request.Request) (string, error) {
	age, ok := r.Lookup("age")
	if !ok {
		return "", fmt.Errorf("%w: age", ErrMissingParam)
	}
	return fmt.Sprintf("Hola, %s! Tienes %s años.", nameOrDefault(r), age), nil
}

func nameOrDefault(r *request.Request) string {
	if name := r.Value("name"); name != "" {
		return name
	}
	return DefaultName
}

func constant(body string) router.HandlerFunc {
	return func(w *response.Writer, r *request.Request) (string, error) {
		return body, nil
	}
}

func arithmetic(label string, op func(a, b float64) float64) router.HandlerFunc {
	return func(w *response.Writer, r *request.Request) (string, error) {
		a, err := floatParam(r, "a")
		if err != nil {
			return "", err
		}
		b, err := floatParam(r, "b")
		if err != nil {
			return "", err
		}
		return label + " = " + formatDecimal(op(a, b)), nil
	}
}

func floatParam(r *request.Request, name string) (float64, error) {
	raw, ok := r.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidParam, name, raw)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDecimal always keeps a fractional part, so 8 prints as "8.0".
func formatDecimal(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return formatFloat(v)
}

var (
	ErrMissingParam = errors.New("missing query parameter")
	ErrInvalidParam = errors.New("invalid query parameter")
)
