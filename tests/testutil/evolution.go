package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SentMessage is one sendText call received by FakeEvolution.
type SentMessage struct {
	Instance string
	APIKey   string
	Number   string `json:"number"`
	Text     string `json:"text"`
}

// FakeEvolution is an in-process stand-in for the Evolution WhatsApp API.
// It accepts POST /message/sendText/{instance} and records each message.
type FakeEvolution struct {
	Server *httptest.Server

	mu     sync.Mutex
	sent   []SentMessage
	status int
}

// NewFakeEvolution starts the fake server and stops it on cleanup.
func NewFakeEvolution(t *testing.T) *FakeEvolution {
	t.Helper()

	f := &FakeEvolution{status: http.StatusCreated}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the base URL to configure the notifier with.
func (f *FakeEvolution) URL() string {
	return f.Server.URL
}

// RespondWith makes later sends answer with status.
func (f *FakeEvolution) RespondWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Sent returns a copy of the accepted messages.
func (f *FakeEvolution) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]SentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *FakeEvolution) serve(w http.ResponseWriter, r *http.Request) {
	const prefix = "/message/sendText/"
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}

	var msg SentMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg.Instance = strings.TrimPrefix(r.URL.Path, prefix)
	msg.APIKey = r.Header.Get("apikey")

	f.mu.Lock()
	status := f.status
	if status < 300 {
		f.sent = append(f.sent, msg)
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"key":    map[string]string{"remoteJid": msg.Number + "@s.whatsapp.net"},
		"status": "PENDING",
	})
}
