package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohitkumar/actionbus/action"
	"github.com/mohitkumar/actionbus/model"
)

type MetadataService interface {
	ValidateAction(def model.ActionDefinition) error
	BuildHandler(def model.ActionDefinition) (action.Handler, error)
	GetMetadataStorage() MetadataStorage
}

type MetadataServiceImpl struct {
	storage MetadataStorage
}

func NewMetadataService(storage MetadataStorage) MetadataService {
	return &MetadataServiceImpl{
		storage: storage,
	}
}

func (s *MetadataServiceImpl) ValidateAction(def model.ActionDefinition) error {
	if len(strings.TrimSpace(def.Name)) == 0 {
		return fmt.Errorf("action name can not be empty")
	}
	switch def.FeedbackStyle {
	case "", model.FEEDBACK_SINGLE, model.FEEDBACK_CONTINUOUS:
	default:
		return fmt.Errorf("action %s, invalid feedback style %s", def.Name, def.FeedbackStyle)
	}
	_, err := s.BuildHandler(def)
	return err
}

func (s *MetadataServiceImpl) BuildHandler(def model.ActionDefinition) (action.Handler, error) {
	switch model.HandlerKind(strings.ToLower(string(def.Kind))) {
	case model.HANDLER_JAVASCRIPT:
		h, err := action.NewJsHandler(def.Expression)
		if err != nil {
			return nil, fmt.Errorf("action %s, %w", def.Name, err)
		}
		return h, nil
	case model.HANDLER_DELAY:
		if def.DelaySeconds < 0 {
			return nil, fmt.Errorf("action %s, delay can not be negative", def.Name)
		}
		return action.NewDelayHandler(time.Duration(def.DelaySeconds) * time.Second), nil
	case model.HANDLER_ECHO:
		return action.NewEchoHandler(def.Info), nil
	}
	return nil, fmt.Errorf("action %s, invalid handler kind %s", def.Name, def.Kind)
}

func (s *MetadataServiceImpl) GetMetadataStorage() MetadataStorage {
	return s.storage
}
