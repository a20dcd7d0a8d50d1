package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/activitytracker/internal/activities"
	"github.com/2beens/activitytracker/internal/chart"
	"github.com/2beens/activitytracker/internal/config"
	"github.com/2beens/activitytracker/internal/dashboard"
	"github.com/2beens/activitytracker/internal/db"
	"github.com/2beens/activitytracker/internal/feed"
	"github.com/2beens/activitytracker/internal/middleware"
	"github.com/2beens/activitytracker/internal/telemetry/metrics"
	"github.com/2beens/activitytracker/internal/telemetry/tracing"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config       *config.Config
	dbPool       *pgxpool.Pool
	redisClient  *redis.Client
	activityFeed feed.Feed
	store        *feed.Store
	hub          *dashboard.Hub
	sessions     *dashboard.SessionStore

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()

	hubDone chan struct{}
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	s := &Server{
		config:       cfg,
		versionInfo:  params.VersionInfo,
		otelShutdown: func() {},
		hubDone:      make(chan struct{}),
	}

	var extraCollectors []prometheus.Collector
	var repo feed.ActivitiesRepo
	switch cfg.StoreBackend {
	case StoreBackendPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     secrets.PostgresPassword,
			MaxConns:       cfg.PostgresMaxConns,
			TracingEnabled: secrets.HoneycombEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.ApplySchema(ctx, dbPool, activities.Schema); err != nil {
			dbPool.Close()
			return nil, err
		}

		s.dbPool = dbPool
		repo = activities.NewRepo(dbPool)
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	case StoreBackendMemory:
		log.Warnln("using in-memory activity store, records are lost on restart")
		repo = activities.NewMemoryRepo()
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}

	s.promRegistry = metrics.SetupPrometheus(extraCollectors...)
	s.metricsManager = metrics.NewManager("backend", "activity_tracker", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if cfg.RedisHost != "" {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: secrets.RedisPassword,
			DB:       0, // use default DB
		})

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombEnabled, secrets.OtelServiceName, s.redisClient)
	if err != nil {
		s.closeResources()
		return nil, err
	}
	s.otelShutdown = otelShutdown

	s.activityFeed, err = newFeed(cfg, s.redisClient)
	if err != nil {
		s.closeResources()
		return nil, err
	}

	s.store = feed.NewStore(repo, s.activityFeed)
	s.hub = dashboard.NewHub(s.store, s.metricsManager)
	s.sessions = dashboard.NewSessionStore(cfg.SessionCacheMB, cfg.SessionTTL(), cfg.SecureCookies)

	return s, nil
}

func newFeed(cfg *config.Config, rdb *redis.Client) (feed.Feed, error) {
	switch cfg.FeedBackend {
	case feed.BackendRedis:
		if rdb == nil {
			return nil, errors.New("redis feed backend needs redis_host")
		}
		return feed.NewRedisFeed(rdb, cfg.FeedChannel), nil
	case feed.BackendKafka:
		if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopic == "" {
			return nil, errors.New("kafka feed backend needs kafka_brokers and kafka_topic")
		}
		return feed.NewKafkaFeed(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case feed.BackendMemory:
		return feed.NewMemoryFeed(), nil
	default:
		return nil, fmt.Errorf("unknown feed backend: %s", cfg.FeedBackend)
	}
}

// writesOnly applies mw to every method but GET.
func writesOnly(mw mux.MiddlewareFunc) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("activity-tracker-router"))

	rateLimit := func(routeName string) mux.MiddlewareFunc {
		if s.redisClient == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			s.metricsManager,
			routeName,
			s.config.EntriesPerMinute,
		)
	}

	activitiesRouter := r.PathPrefix("/activities").Subrouter()
	activitiesRouter.Use(writesOnly(rateLimit("activities")))
	activities.NewHandler(s.store).SetupRoutes(activitiesRouter)

	dashboardHandler := dashboard.NewHandler(
		s.sessions,
		dashboard.NewController(s.store, s.metricsManager),
		s.hub,
		chart.DefaultConfig(),
		s.metricsManager,
	)
	dashboardHandler.SetupRoutes(r)
	r.Handle("/entries", rateLimit("entries")(http.HandlerFunc(dashboardHandler.HandleSubmit))).
		Methods("POST").
		Name("dashboard-entries")

	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.DrainAndCloseRequest(s.config.MaxBodyBytes))

	return r, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(s.versionInfo)); err != nil {
		log.Errorf("write version info: %s", err)
	}
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	go func() {
		defer close(s.hubDone)
		if err := s.hub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("live hub stopped: %s", err)
		}
	}()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

// GracefulShutdown expects the ctx given to Serve to be cancelled already, so the
// live hub and its websocket viewers are winding down.
func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	select {
	case <-s.hubDone:
	case <-ctx.Done():
		log.Warnln("live hub did not stop in time")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	s.closeResources()

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) closeResources() {
	if s.activityFeed != nil {
		if err := s.activityFeed.Close(); err != nil {
			log.Errorf("failed to close activity feed: %s", err)
		}
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}
}
