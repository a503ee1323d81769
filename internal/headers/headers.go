package headers

import (
	"errors"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	ContentLength = "Content-Length"
	ContentType   = "Content-Type"
	Connection    = "Connection"
)

// contentLengthPrefix is matched case-sensitively against raw header lines.
const contentLengthPrefix = ContentLength + ":"

type Headers map[string][]string

func NewHeaders() Headers {
	return make(Headers)
}

func (h Headers) Get(key string) (string, bool) {
	vals, ok := h[textproto.CanonicalMIMEHeaderKey(key)]
	return strings.Join(vals, ","), ok
}

// Value is Get without the presence flag.
func (h Headers) Value(key string) string {
	v, _ := h.Get(key)
	return v
}

func (h Headers) Add(key, val string) {
	k := textproto.CanonicalMIMEHeaderKey(key)
	h[k] = append(h[k], val)
}

func (h Headers) Set(key, val string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = []string{val}
}

func (h Headers) Del(key string) {
	delete(h, textproto.CanonicalMIMEHeaderKey(key))
}

// Keys returns the header names in a stable order so that identical
// responses serialize to identical bytes.
func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h Headers) ParseHeaderLine(line string) error {
	key, val, ok := strings.Cut(line, ":")
	if !ok {
		return ErrMalformedHeader
	}

	key = strings.TrimLeftFunc(key, unicode.IsSpace)
	if key == "" || strings.ContainsFunc(key, unicode.IsSpace) {
		return ErrMalformedHeader
	}

	h.Add(key, strings.TrimSpace(val))
	return nil
}

// ParseContentLength reports the byte count carried by a raw
// "Content-Length:" line. Lines with any other name, including other
// spellings of the same name, and unparsable or negative values report false.
func ParseContentLength(line string) (int, bool) {
	if !strings.HasPrefix(line, contentLengthPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[len(contentLengthPrefix):]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

var ErrMalformedHeader = errors.New("malformed header")
