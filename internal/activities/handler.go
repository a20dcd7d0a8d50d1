package activities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/activitytracker/internal/telemetry/tracing"
	"github.com/2beens/activitytracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=activities_test

type store interface {
	Add(ctx context.Context, activity Activity) (*Activity, error)
	Get(ctx context.Context, id string) (*Activity, error)
	List(ctx context.Context, params ListParams) ([]Activity, error)
	Update(ctx context.Context, activity Activity) error
	Delete(ctx context.Context, id string) error
}

// Handler is the JSON API over the activity collection. Every write goes through the
// store, so connected dashboards see it on the change feed.
type Handler struct {
	store store
}

func NewHandler(store store) *Handler {
	return &Handler{
		store: store,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("", h.HandleAdd).Methods("POST", "OPTIONS").Name("activities-add")
	router.HandleFunc("", h.HandleList).Methods("GET").Name("activities-list")
	router.HandleFunc("/{id}", h.HandleGet).Methods("GET").Name("activities-get")
	router.HandleFunc("/{id}", h.HandleUpdate).Methods("PUT", "OPTIONS").Name("activities-update")
	router.HandleFunc("/{id}", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("activities-delete")
}

func validate(activity Activity) error {
	if strings.TrimSpace(activity.Activity) == "" {
		return errors.New("activity empty")
	}
	if activity.Distance <= 0 {
		return errors.New("distance must be positive")
	}
	return nil
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.add")
	defer span.End()

	var activity Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		log.Errorf("add activity, unmarshal json: %s", err)
		http.Error(w, "invalid activity json", http.StatusBadRequest)
		return
	}
	if err := validate(activity); err != nil {
		http.Error(w, "invalid activity: "+err.Error(), http.StatusBadRequest)
		return
	}

	added, err := h.store.Add(ctx, activity)
	if err != nil {
		log.Errorf("add activity [%s, %d]: %s", activity.Activity, activity.Distance, err)
		http.Error(w, "failed to add activity", http.StatusInternalServerError)
		return
	}
	span.SetAttributes(attribute.String("activity.id", added.ID))

	resp, err := json.Marshal(added)
	if err != nil {
		log.Errorf("marshal added activity %s: %s", added.ID, err)
		http.Error(w, "failed to add activity", http.StatusInternalServerError)
		return
	}

	log.Debugf("activity added: %s [%s, %dm]", added.ID, added.Activity, added.Distance)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusCreated)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	activity, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			http.Error(w, "activity not found", http.StatusNotFound)
			return
		}
		log.Errorf("get activity %s: %s", id, err)
		http.Error(w, "failed to get activity", http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(activity)
	if err != nil {
		log.Errorf("marshal activity %s: %s", id, err)
		http.Error(w, "failed to get activity", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

// HandleList answers with the activities ordered by date. Optional query params:
// activity, from and to (RFC 3339 or 2006-01-02).
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.list")
	defer span.End()

	query := r.URL.Query()
	params := ListParams{
		Activity: query.Get("activity"),
	}
	for key, target := range map[string]**time.Time{"from": &params.From, "to": &params.To} {
		value := query.Get(key)
		if value == "" {
			continue
		}
		t, err := parseDate(value)
		if err != nil {
			http.Error(w, "invalid "+key+" date", http.StatusBadRequest)
			return
		}
		*target = &t
	}

	list, err := h.store.List(ctx, params)
	if err != nil {
		log.Errorf("list activities [%s]: %s", params.Activity, err)
		http.Error(w, "failed to list activities", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Activity{}
	}
	span.SetAttributes(attribute.Int("activities.count", len(list)))

	resp, err := json.Marshal(list)
	if err != nil {
		log.Errorf("marshal activities list: %s", err)
		http.Error(w, "failed to list activities", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, resp)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.update")
	defer span.End()

	var activity Activity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		log.Errorf("update activity, unmarshal json: %s", err)
		http.Error(w, "invalid activity json", http.StatusBadRequest)
		return
	}
	activity.ID = mux.Vars(r)["id"]
	if err := validate(activity); err != nil {
		http.Error(w, "invalid activity: "+err.Error(), http.StatusBadRequest)
		return
	}
	if activity.Date.IsZero() {
		http.Error(w, "invalid activity: date empty", http.StatusBadRequest)
		return
	}

	if err := h.store.Update(ctx, activity); err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			http.Error(w, "activity not found", http.StatusNotFound)
			return
		}
		log.Errorf("update activity %s: %s", activity.ID, err)
		http.Error(w, "failed to update activity", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "updated:"+activity.ID)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activities.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if err := h.store.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrActivityNotFound) {
			http.Error(w, "activity not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete activity %s: %s", id, err)
		http.Error(w, "failed to delete activity", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "deleted:"+id)
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
