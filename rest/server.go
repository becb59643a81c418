package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/metadata"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/monitor"
	"go.uber.org/zap"
)

type ActionMonitor interface {
	Get(name string) (monitor.ActionStatus, bool)
	List() []monitor.ActionStatus
}

type ActionDispatcher interface {
	Dispatch(ctx context.Context, name string, params map[string]string, timeout time.Duration) (uint64, error)
	Cancel(ctx context.Context, name string) error
}

type ActionRegistrar interface {
	RegisterAction(def model.ActionDefinition) error
}

type Server struct {
	http.Server
	Port            int
	metadataService metadata.MetadataService
	monitor         ActionMonitor
	dispatcher      ActionDispatcher
	registrar       ActionRegistrar
}

func NewServer(httpPort int, metadataService metadata.MetadataService, monitor ActionMonitor, dispatcher ActionDispatcher, registrar ActionRegistrar) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		metadataService: metadataService,
		monitor:         monitor,
		dispatcher:      dispatcher,
		registrar:       registrar,
		Port:            httpPort,
	}

	router := mux.NewRouter()
	router.HandleFunc("/metadata/action", s.HandleCreateActionDefinition).Methods(http.MethodPost)
	router.HandleFunc("/metadata/action", s.HandleListActionDefinitions).Methods(http.MethodGet)
	router.HandleFunc("/metadata/action/{name:.+}", s.HandleGetActionDefinition).Methods(http.MethodGet)

	router.HandleFunc("/actions", s.HandleListActions).Methods(http.MethodGet)
	router.HandleFunc("/actions/{name:.+}/dispatch", s.HandleDispatchAction).Methods(http.MethodPost)
	router.HandleFunc("/actions/{name:.+}/cancel", s.HandleCancelAction).Methods(http.MethodPost)
	router.HandleFunc("/actions/{name:.+}", s.HandleGetAction).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		logger.Debug("http request", zap.String("method", r.Method), zap.String("uri", r.RequestURI))
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
