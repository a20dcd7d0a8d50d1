package dashboard

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/activitytracker/internal/activities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_LoadCreatesSession(t *testing.T) {
	store := NewSessionStore(1, time.Hour, false)
	store.newID = func() string { return "session-1" }

	rr := httptest.NewRecorder()
	session := store.Load(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, activities.Cycling, session.Activity)
	assert.Equal(t, activities.Cycling, session.FormLabel)
	assert.Equal(t, activities.Cycling, session.InputID)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "session-1", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, int64(1), store.Count())
}

func TestSessionStore_LoadExisting(t *testing.T) {
	store := NewSessionStore(1, time.Hour, false)
	session := NewSession("abc")
	session.Activity = activities.Swimming
	session.ErrorText = InvalidDistanceMessage
	require.NoError(t, store.Save(session))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "abc"})
	rr := httptest.NewRecorder()

	loaded := store.Load(rr, req)
	assert.Equal(t, session, loaded)
	assert.Empty(t, rr.Result().Cookies(), "known session keeps its cookie")
}

func TestSessionStore_UnknownCookieStartsOver(t *testing.T) {
	store := NewSessionStore(1, time.Hour, false)
	store.newID = func() string { return "fresh" }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "expired"})

	session := store.Load(httptest.NewRecorder(), req)
	assert.Equal(t, "fresh", session.ID)
	assert.Equal(t, activities.Cycling, session.Activity)

	_, err := store.Get("expired")
	assert.Error(t, err)
}
