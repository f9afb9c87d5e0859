package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSlack_OK(t *testing.T) {
	var got, user string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got, user = payload["text"], payload["username"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL)
	if s == nil {
		t.Fatal("expected slack client")
	}
	if err := s.Send(context.Background(), "Category DATABASE failing", "Success rate: 50.0%"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got, "*Category DATABASE failing*\n") || user != "statuscheck" {
		t.Fatalf("payload not as expected: %q %q", got, user)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	err := NewSlack(ts.URL).Send(context.Background(), "X", "Y")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected error on non-2xx, got %v", err)
	}
}

func TestSlack_EmptyWebhookIsNil(t *testing.T) {
	if NewSlack("") != nil {
		t.Fatal("expected nil for empty webhook")
	}
}

type failing struct{ err error }

func (f failing) Send(context.Context, string, string) error { return f.err }

func TestMulti_CollectsErrorsAndLogs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e1, e2 := errors.New("one"), errors.New("two")
	m := Multi{Log{Logger: zap.New(core)}, nil, failing{e1}, failing{e2}}

	err := m.Send(context.Background(), "T", "body")
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("want both errors, got %v", err)
	}
	if logs.FilterMessage("alert").Len() != 1 {
		t.Fatalf("expected one alert log entry, got %d", logs.Len())
	}
}
