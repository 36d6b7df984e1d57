// Package rest exposes the UI event surface of the runtime engine.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/appforge/canvasflow/dispatch"
	"github.com/appforge/canvasflow/logger"
	"github.com/appforge/canvasflow/metric"
	"github.com/appforge/canvasflow/nav"
	"github.com/appforge/canvasflow/notify"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Syncer reloads the workflow store and rebuilds the trigger index.
type Syncer interface {
	Sync(ctx context.Context) error
}

type Server struct {
	http.Server
	Port       int
	dispatcher *dispatch.Dispatcher
	syncer     Syncer
	pages      *nav.Pages
	hub        *notify.Hub
}

func NewServer(httpPort int, dispatcher *dispatch.Dispatcher, syncer Syncer,
	pages *nav.Pages, hub *notify.Hub, metrics *metric.Metrics) (*Server, error) {

	s := &Server{
		Server: http.Server{
			Addr: fmt.Sprintf(":%d", httpPort),
		},
		Port:       httpPort,
		dispatcher: dispatcher,
		syncer:     syncer,
		pages:      pages,
		hub:        hub,
	}

	router := mux.NewRouter()
	router.HandleFunc("/event", s.HandleEvent).Methods(http.MethodPost)
	router.HandleFunc("/index/{key}", s.HandleIndexProbe).Methods(http.MethodGet)
	router.HandleFunc("/sync", s.HandleSync).Methods(http.MethodPost)
	router.HandleFunc("/pages", s.HandlePages).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/ws", hub.HandleWS).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server", zap.Error(err))
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
