package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/statuscheck/internal/domain"
)

const maxBody = 64 << 10

type HTTPChecker struct {
	Client *http.Client

	method   string
	body     []byte
	header   http.Header
	accept   []int
	anyBody  []string
	jsonPath string
	jsonWant string
	mustHdr  string
}

type HTTPOption func(*HTTPChecker)

// Method sets the request method (GET by default).
func Method(m string) HTTPOption {
	return func(h *HTTPChecker) { h.method = strings.ToUpper(m) }
}

// JSONBody sends body with a JSON content type.
func JSONBody(body string) HTTPOption {
	return func(h *HTTPChecker) {
		h.body = []byte(body)
		h.header.Set("Content-Type", "application/json")
	}
}

func Header(name, value string) HTTPOption {
	return func(h *HTTPChecker) { h.header.Set(name, value) }
}

// AcceptStatus replaces the default 2xx acceptance with an explicit set,
// e.g. 401/403 for routes that must reject anonymous callers.
func AcceptStatus(codes ...int) HTTPOption {
	return func(h *HTTPChecker) { h.accept = append(h.accept, codes...) }
}

// ExpectBody requires the response body to contain at least one of subs.
func ExpectBody(subs ...string) HTTPOption {
	return func(h *HTTPChecker) { h.anyBody = append(h.anyBody, subs...) }
}

// ExpectJSONField requires the dotted path in a JSON body to equal want.
func ExpectJSONField(path, want string) HTTPOption {
	return func(h *HTTPChecker) {
		h.jsonPath = path
		h.jsonWant = want
	}
}

// ExpectHeader requires a non-empty response header.
func ExpectHeader(name string) HTTPOption {
	return func(h *HTTPChecker) { h.mustHdr = name }
}

func NewHTTPChecker(opts ...HTTPOption) *HTTPChecker {
	h := &HTTPChecker{
		Client: &http.Client{},
		method: http.MethodGet,
		header: http.Header{},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *HTTPChecker) Check(ctx context.Context, t Target) domain.Outcome {
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if h.body != nil {
		body = bytes.NewReader(h.body)
	}
	req, err := http.NewRequestWithContext(ctx, h.method, t.Address, body)
	if err != nil {
		return domain.Failure(domain.TextError, err.Error())
	}
	req.Header = h.header.Clone()

	start := time.Now()
	resp, err := h.Client.Do(req)
	if err != nil {
		return Classify(err, timeout).WithLatency(time.Since(start))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	latency := time.Since(start)
	code := resp.StatusCode
	text := strconv.Itoa(code)
	if err != nil {
		return Classify(err, timeout).WithCode(code, text).WithLatency(latency)
	}

	fail := func(detail string) domain.Outcome {
		return domain.Failure(text, detail).WithCode(code, text).WithLatency(latency)
	}
	if !h.accepts(code) {
		return fail(fmt.Sprintf("HTTP %d", code))
	}
	if len(h.anyBody) > 0 && !containsAny(string(raw), h.anyBody) {
		return fail(fmt.Sprintf("HTTP %d but body lacks %s", code, strings.Join(h.anyBody, "|")))
	}
	if h.jsonPath != "" {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fail("invalid JSON body: " + Truncate(err.Error()))
		}
		got, ok := lookupPath(doc, h.jsonPath)
		if !ok {
			return fail(h.jsonPath + " missing")
		}
		if s := fmt.Sprint(got); s != h.jsonWant {
			return fail(fmt.Sprintf("%s is %s", h.jsonPath, s))
		}
	}
	if h.mustHdr != "" && resp.Header.Get(h.mustHdr) == "" {
		return fail(h.mustHdr + " header missing")
	}
	return domain.Success(fmt.Sprintf("HTTP %d", code)).WithCode(code, text).WithLatency(latency)
}

func (h *HTTPChecker) accepts(code int) bool {
	if len(h.accept) > 0 {
		return slices.Contains(h.accept, code)
	}
	return code >= 200 && code < 300
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// lookupPath walks a decoded JSON document along a dotted path.
func lookupPath(doc any, path string) (any, bool) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}
