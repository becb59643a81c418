package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/persistence"
	"go.uber.org/zap"
)

func (s *Server) HandleCreateActionDefinition(w http.ResponseWriter, r *http.Request) {
	var actionDef model.ActionDefinition
	if err := json.NewDecoder(r.Body).Decode(&actionDef); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid action definition")
		return
	}
	defer r.Body.Close()
	if err := s.metadataService.ValidateAction(actionDef); err != nil {
		logger.Error("error validating action definition", zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.registrar.RegisterAction(actionDef); err != nil {
		logger.Error("error creating action definition", zap.String("name", actionDef.Name), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, "error creating action definition")
		return
	}
	respondOK(w, map[string]any{"created": true})
}

func (s *Server) HandleGetActionDefinition(w http.ResponseWriter, r *http.Request) {
	actionName := mux.Vars(r)["name"]
	def, err := s.metadataService.GetMetadataStorage().GetActionDefinition(actionName)
	if err != nil {
		var notFound persistence.NotFoundError
		if errors.As(err, &notFound) {
			respondWithError(w, http.StatusNotFound, "action definition not found")
			return
		}
		logger.Error("error reading action definition", zap.String("name", actionName), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error reading action definition")
		return
	}
	respondWithJSON(w, http.StatusOK, def)
}

func (s *Server) HandleListActionDefinitions(w http.ResponseWriter, r *http.Request) {
	defs, err := s.metadataService.GetMetadataStorage().ListActionDefinitions()
	if err != nil {
		logger.Error("error listing action definitions", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing action definitions")
		return
	}
	respondWithJSON(w, http.StatusOK, defs)
}
