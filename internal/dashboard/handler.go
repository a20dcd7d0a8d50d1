package dashboard

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/chart"
	"github.com/2beens/activitytracker/internal/telemetry/metrics"
	"github.com/2beens/activitytracker/internal/telemetry/tracing"
	"github.com/2beens/activitytracker/pkg"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	ChartID          = "activity-chart"
	echartsAssetHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
	liveMaxMessage = 512
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// LiveUpdate is pushed to a live viewer after every render.
type LiveUpdate struct {
	Version  uint64                 `json:"version"`
	Activity string                 `json:"activity"`
	Entered  []string               `json:"entered"`
	Exited   []string               `json:"exited"`
	Option   map[string]interface{} `json:"option"`
}

type liveRequest struct {
	Activity string `json:"activity"`
}

type pageView struct {
	Session    *Session
	Activities []string
	ChartID    string
	AssetsHost string
}

// Handler serves the dashboard page, the activity buttons and entry form, and the chart
// in its SVG, PNG, echarts option and live websocket forms.
type Handler struct {
	sessions       *SessionStore
	controller     *Controller
	hub            *Hub
	chartConfig    chart.Config
	metricsManager *metrics.Manager
	upgrader       websocket.Upgrader
}

func NewHandler(
	sessions *SessionStore,
	controller *Controller,
	hub *Hub,
	chartConfig chart.Config,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		sessions:       sessions,
		controller:     controller,
		hub:            hub,
		chartConfig:    chartConfig,
		metricsManager: metricsManager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// SetupRoutes registers everything but the entry route, which the server mounts
// behind its rate limiter.
func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/", h.HandlePage).Methods("GET").Name("dashboard-page")
	router.HandleFunc("/select", h.HandleSelect).Methods("POST").Name("dashboard-select")
	router.HandleFunc("/chart.svg", h.HandleChartSVG).Methods("GET").Name("dashboard-chart-svg")
	router.HandleFunc("/chart.png", h.HandleChartPNG).Methods("GET").Name("dashboard-chart-png")
	router.HandleFunc("/chart/option", h.HandleChartOption).Methods("GET").Name("dashboard-chart-option")
	router.HandleFunc("/live", h.HandleLive).Methods("GET").Name("dashboard-live")
}

func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Load(w, r)

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, pageView{
		Session:    session,
		Activities: activities.Kinds,
		ChartID:    ChartID,
		AssetsHost: echartsAssetHost,
	}); err != nil {
		log.Errorf("execute page template: %s", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.HTML, buf.Bytes(), http.StatusOK)
}

func (h *Handler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	session := h.sessions.Load(w, r)
	h.controller.Select(session, r.Form.Get("activity"))
	h.saveAndRespond(w, session)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	session := h.sessions.Load(w, r)
	h.controller.Submit(r.Context(), session, r.Form.Get("distance"))
	h.saveAndRespond(w, session)
}

func (h *Handler) saveAndRespond(w http.ResponseWriter, session *Session) {
	if err := h.sessions.Save(session); err != nil {
		log.Errorf("save session %s: %s", session.ID, err)
	}

	resp, err := json.Marshal(session)
	if err != nil {
		log.Errorf("marshal session %s: %s", session.ID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusOK)
}

// activityFor prefers the activity query param over the session's selection.
func (h *Handler) activityFor(w http.ResponseWriter, r *http.Request) string {
	if activity := r.URL.Query().Get("activity"); activity != "" {
		return activity
	}
	return h.sessions.Load(w, r).Activity
}

func (h *Handler) renderLatest(ctx context.Context, activity, format string) chart.Frame {
	_, span := tracing.GlobalTracer.Start(ctx, "dashboard.render")
	defer span.End()
	span.SetAttributes(
		attribute.String("activity", activity),
		attribute.String("format", format),
	)

	start := time.Now()
	frame := chart.NewRenderer(h.chartConfig).Render(h.hub.Latest().Records, activity)
	h.metricsManager.HistogramRenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	return frame
}

func (h *Handler) HandleChartSVG(w http.ResponseWriter, r *http.Request) {
	frame := h.renderLatest(r.Context(), h.activityFor(w, r), "svg")

	var buf bytes.Buffer
	if err := chart.WriteSVG(&buf, frame); err != nil {
		log.Errorf("write svg chart: %s", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.SVG, buf.Bytes(), http.StatusOK)
}

func (h *Handler) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	frame := h.renderLatest(r.Context(), h.activityFor(w, r), "png")

	var buf bytes.Buffer
	if err := chart.WritePNG(&buf, frame); err != nil {
		if errors.Is(err, chart.ErrEmptyFrame) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Errorf("write png chart: %s", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.PNG, buf.Bytes(), http.StatusOK)
}

func (h *Handler) HandleChartOption(w http.ResponseWriter, r *http.Request) {
	frame := h.renderLatest(r.Context(), h.activityFor(w, r), "echarts")

	resp, err := json.Marshal(chart.ECharts(frame, ChartID).JSON())
	if err != nil {
		log.Errorf("marshal chart option: %s", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusOK)
}

// HandleLive upgrades to a websocket and pushes a LiveUpdate for every new snapshot and
// every activity the viewer switches to. Each connection renders with its own renderer,
// so entered and exited marks are relative to what that viewer saw last.
func (h *Handler) HandleLive(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Load(w, r)

	conn, err := h.upgrader.Upgrade(w, r, w.Header())
	if err != nil {
		// upgrader already responded
		log.Debugf("live upgrade: %s", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Tracef("close live conn: %s", err)
		}
	}()

	viewer := h.hub.Register()
	defer h.hub.Unregister(viewer)

	log.Debugf("live viewer connected, session %s", session.ID)

	activityChanges := make(chan string, 1)
	readerDone := make(chan struct{})
	go h.readLive(conn, activityChanges, readerDone)

	renderer := chart.NewRenderer(h.chartConfig)
	activity := session.Activity
	snapshot := h.hub.Latest()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			return
		case s, ok := <-viewer.Snapshots():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(liveWriteWait))
				return
			}
			snapshot = s
		case a := <-activityChanges:
			activity = a
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
			continue
		}

		if err := h.pushLive(conn, renderer, snapshot, activity); err != nil {
			log.Debugf("push live update: %s", err)
			return
		}
	}
}

func (h *Handler) pushLive(conn *websocket.Conn, renderer *chart.Renderer, snapshot Snapshot, activity string) error {
	start := time.Now()
	frame := renderer.Render(snapshot.Records, activity)
	h.metricsManager.HistogramRenderDuration.WithLabelValues("live").Observe(time.Since(start).Seconds())

	update := LiveUpdate{
		Version:  snapshot.Version,
		Activity: activity,
		Entered:  markIDs(frame.Entered()),
		Exited:   markIDs(frame.Exited),
		Option:   chart.ECharts(frame, ChartID).JSON(),
	}

	if err := conn.SetWriteDeadline(time.Now().Add(liveWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(update)
}

// readLive consumes viewer messages until the connection fails; an activity switch is
// forwarded, keeping only the latest one when the writer is busy.
func (h *Handler) readLive(conn *websocket.Conn, activityChanges chan string, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(liveMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		var req liveRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("live read: %s", err)
			}
			return
		}
		if req.Activity == "" {
			continue
		}

		select {
		case <-activityChanges:
		default:
		}
		activityChanges <- req.Activity
	}
}

func markIDs(marks []chart.Mark) []string {
	ids := make([]string, 0, len(marks))
	for _, m := range marks {
		ids = append(ids, m.ID)
	}
	return ids
}
