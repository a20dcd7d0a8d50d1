package activities_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/activitytracker/internal/activities"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *Mockstore) {
	ctrl := gomock.NewController(t)
	mockStore := NewMockstore(ctrl)

	r := mux.NewRouter()
	activities.NewHandler(mockStore).SetupRoutes(r.PathPrefix("/activities").Subrouter())
	return r, mockStore
}

func serve(r *mux.Router, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestHandler_HandleAdd(t *testing.T) {
	r, mockStore := newTestRouter(t)

	date := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	body, err := json.Marshal(activities.Activity{Activity: activities.Running, Distance: 5000, Date: date})
	require.NoError(t, err)

	mockStore.EXPECT().
		Add(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, a activities.Activity) (*activities.Activity, error) {
			assert.Equal(t, activities.Running, a.Activity)
			assert.Equal(t, 5000, a.Distance)
			a.ID = "new-id"
			return &a, nil
		})

	rr := serve(r, http.MethodPost, "/activities", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var added activities.Activity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &added))
	assert.Equal(t, "new-id", added.ID)
	assert.True(t, date.Equal(added.Date))
}

func TestHandler_HandleAdd_Invalid(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := serve(r, http.MethodPost, "/activities", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(r, http.MethodPost, "/activities", []byte(`{"activity":"running","distance":0}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(r, http.MethodPost, "/activities", []byte(`{"activity":" ","distance":10}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleAdd_StoreError(t *testing.T) {
	r, mockStore := newTestRouter(t)
	mockStore.EXPECT().Add(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	rr := serve(r, http.MethodPost, "/activities", []byte(`{"activity":"running","distance":10}`))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHandler_HandleGet(t *testing.T) {
	r, mockStore := newTestRouter(t)

	activity := activities.Activity{ID: "a1", Activity: activities.Walking, Distance: 800, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	mockStore.EXPECT().Get(gomock.Any(), "a1").Return(&activity, nil)
	mockStore.EXPECT().Get(gomock.Any(), "missing").Return(nil, activities.ErrActivityNotFound)

	rr := serve(r, http.MethodGet, "/activities/a1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":"a1","activity":"walking","distance":800,"date":"2024-03-01T00:00:00Z"}`, rr.Body.String())

	rr = serve(r, http.MethodGet, "/activities/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_HandleList(t *testing.T) {
	r, mockStore := newTestRouter(t)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mockStore.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, params activities.ListParams) ([]activities.Activity, error) {
			assert.Equal(t, activities.Cycling, params.Activity)
			require.NotNil(t, params.From)
			assert.True(t, from.Equal(*params.From))
			assert.Nil(t, params.To)
			return nil, nil
		})

	rr := serve(r, http.MethodGet, "/activities?activity=cycling&from=2024-01-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]", rr.Body.String())

	rr = serve(r, http.MethodGet, "/activities?to=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleUpdate(t *testing.T) {
	r, mockStore := newTestRouter(t)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	body, err := json.Marshal(activities.Activity{ID: "ignored", Activity: activities.Swimming, Distance: 1500, Date: date})
	require.NoError(t, err)

	mockStore.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, a activities.Activity) error {
			// the path decides which record is replaced
			assert.Equal(t, "a1", a.ID)
			assert.Equal(t, 1500, a.Distance)
			return nil
		})
	mockStore.EXPECT().Update(gomock.Any(), gomock.Any()).Return(activities.ErrActivityNotFound)

	rr := serve(r, http.MethodPut, "/activities/a1", body)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "updated:a1", rr.Body.String())

	rr = serve(r, http.MethodPut, "/activities/a2", body)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(r, http.MethodPut, "/activities/a1", []byte(`{"activity":"running","distance":10}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleDelete(t *testing.T) {
	r, mockStore := newTestRouter(t)

	mockStore.EXPECT().Delete(gomock.Any(), "a1").Return(nil)
	mockStore.EXPECT().Delete(gomock.Any(), "a2").Return(activities.ErrActivityNotFound)
	mockStore.EXPECT().Delete(gomock.Any(), "a3").Return(errors.New("conn reset"))

	rr := serve(r, http.MethodDelete, "/activities/a1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "deleted:a1", rr.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/activities/a2", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodDelete, "/activities/a3", nil).Code)
}

func TestHandler_Options(t *testing.T) {
	r, _ := newTestRouter(t)

	rr := serve(r, http.MethodOptions, "/activities", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Allow"))
}
