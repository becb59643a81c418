package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/actionbus/action"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/model"
	"go.uber.org/zap"
)

func (s *Server) HandleListActions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, s.monitor.List())
}

func (s *Server) HandleGetAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	st, found := s.monitor.Get(name)
	if !found {
		respondWithError(w, http.StatusNotFound, "no traffic seen for action "+name)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

func (s *Server) HandleDispatchAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var req model.DispatchRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid dispatch request")
		return
	}
	defer r.Body.Close()
	if req.TimeoutSeconds < 0 {
		respondWithError(w, http.StatusBadRequest, "timeout can not be negative")
		return
	}
	timeout := time.Duration(req.TimeoutSeconds * float64(time.Second))
	id, err := s.dispatcher.Dispatch(r.Context(), name, req.Params, timeout)
	if err != nil {
		logger.Error("error dispatching action", zap.String("name", name), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error dispatching action")
		return
	}
	respondOK(w, map[string]any{"name": name, "id": id})
}

func (s *Server) HandleCancelAction(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	err := s.dispatcher.Cancel(r.Context(), name)
	if errors.Is(err, action.ErrNoRequest) {
		respondWithError(w, http.StatusConflict, "no request sent for action "+name)
		return
	}
	if err != nil {
		logger.Error("error cancelling action", zap.String("name", name), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error cancelling action")
		return
	}
	respondOK(w, map[string]any{"name": name, "cancelled": true})
}
