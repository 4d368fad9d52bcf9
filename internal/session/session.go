package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	cookieName = "bridge-session"

	sessionTTL          = 30 * time.Minute
	sessionStoreMaxSize = 60000
)

// Data is the transient state of one in-flight browser session. The
// four OAuth parameters are stored verbatim from the initial request;
// the provider callback URL and code verifier are filled in after the
// member logs in.
type Data struct {
	ResponseType string
	ClientID     string
	State        string
	RedirectURI  string

	ProviderCallbackURL string
	CodeVerifier        string
}

type entry struct {
	data      *Data
	expiresAt time.Time
}

type memoryStore struct {
	maxSize       int
	sessions      map[string]*entry
	evictionQueue []string
	mu            sync.Mutex
}

// Manager establishes the opaque session identifier cookie and scopes
// each request to its own Data. The cookie is the sole trust boundary
// between concurrent independent flows.
type Manager struct {
	store *memoryStore
}

type contextKeyData struct{}

func NewManager() *Manager {
	return &Manager{
		store: &memoryStore{
			maxSize:  sessionStoreMaxSize,
			sessions: make(map[string]*entry),
		},
	}
}

// Middleware sets the session cookie if needed and injects the
// session's Data into the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, id, isNew, err := m.ensureSession(r)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		if isNew {
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(sessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), contextKeyData{}, data)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromRequest returns the session Data injected by Middleware, or nil
// when the request did not pass through it.
func FromRequest(r *http.Request) *Data {
	if d := r.Context().Value(contextKeyData{}); d != nil {
		if data, ok := d.(*Data); ok {
			return data
		}
	}
	return nil
}

func (m *Manager) ensureSession(r *http.Request) (*Data, string, bool, error) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		if data, ok := m.store.get(c.Value); ok {
			return data, c.Value, false, nil
		}
	}
	data := &Data{}
	id, err := m.store.put(data)
	if err != nil {
		return nil, "", false, err
	}
	return data, id, true, nil
}

func (s *memoryStore) get(id string) (*Data, bool) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	s.collectGarbage()
	s.mu.Unlock()

	if !ok || e.expiresAt.Before(time.Now()) {
		return nil, false
	}
	return e.data, true
}

func (s *memoryStore) put(data *Data) (string, error) {
	s.mu.Lock()
	defer func() { s.collectGarbage(); s.mu.Unlock() }()

	for {
		id, err := generateSessionID()
		if err != nil {
			return "", fmt.Errorf("failed to generate session identifier: %w", err)
		}
		if _, ok := s.sessions[id]; ok {
			continue
		}

		// Enforce maximum size.
		for len(s.sessions) >= s.maxSize {
			oldest := s.evictionQueue[0]
			s.evictionQueue = s.evictionQueue[1:]
			delete(s.sessions, oldest)
		}

		s.sessions[id] = &entry{data: data, expiresAt: time.Now().Add(sessionTTL)}
		s.evictionQueue = append(s.evictionQueue, id)
		return id, nil
	}
}

func (s *memoryStore) collectGarbage() {
	var evictionQueue []string
	for _, id := range s.evictionQueue {
		e, ok := s.sessions[id]
		if !ok {
			continue
		}
		if time.Now().Before(e.expiresAt) {
			evictionQueue = append(evictionQueue, id)
		} else {
			delete(s.sessions, id)
		}
	}
	s.evictionQueue = evictionQueue
}

func generateSessionID() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}
