package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/activitytracker/internal/activities"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	SessionCookieName = "at_session"

	megabyte = 1024 * 1024
)

// Session is what one viewer sees of the input area: the selected activity and
// the entry form bound to it.
type Session struct {
	ID         string `json:"-"`
	Activity   string `json:"activity"`
	FormLabel  string `json:"formLabel"`
	InputID    string `json:"inputId"`
	ErrorText  string `json:"errorText"`
	InputValue string `json:"inputValue"`
}

// NewSession starts a viewer on the default activity.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Activity:  activities.Cycling,
		FormLabel: activities.Cycling,
		InputID:   activities.Cycling,
	}
}

// SessionStore keeps sessions in a freecache instance, so idle viewers are evicted
// by ttl or by memory pressure and simply start over from the default.
type SessionStore struct {
	cache  *freecache.Cache
	ttl    time.Duration
	secure bool
	newID  func() string
}

func NewSessionStore(sizeMB int, ttl time.Duration, secureCookie bool) *SessionStore {
	if sizeMB <= 0 {
		sizeMB = 10
	}
	return &SessionStore{
		cache:  freecache.NewCache(sizeMB * megabyte),
		ttl:    ttl,
		secure: secureCookie,
		newID:  uuid.NewString,
	}
}

// Load returns the session of the request's cookie, or a fresh one when there is no
// cookie or the session expired. A fresh session gets its cookie set on w.
func (s *SessionStore) Load(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if session, err := s.Get(cookie.Value); err == nil {
			return session
		}
	}

	session := NewSession(s.newID())
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err := s.Save(session); err != nil {
		log.Errorf("save new session: %s", err)
	}
	return session
}

func (s *SessionStore) Get(id string) (*Session, error) {
	raw, err := s.cache.Get([]byte(id))
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	session := &Session{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	session.ID = id
	return session, nil
}

func (s *SessionStore) Save(session *Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.cache.Set([]byte(session.ID), raw, int(s.ttl.Seconds())); err != nil {
		return fmt.Errorf("set session %s: %w", session.ID, err)
	}
	return nil
}

func (s *SessionStore) Count() int64 {
	return s.cache.EntryCount()
}
