package memory

import (
	"sort"
	"sync"

	"github.com/mohitkumar/actionbus/metadata"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/persistence"
)

var _ metadata.MetadataStorage = new(inmemMetadataStorage)

type inmemMetadataStorage struct {
	mu      sync.RWMutex
	actions map[string]model.ActionDefinition
}

func NewInmemMetadataStorage() *inmemMetadataStorage {
	return &inmemMetadataStorage{
		actions: make(map[string]model.ActionDefinition),
	}
}

func (s *inmemMetadataStorage) SaveActionDefinition(action model.ActionDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	action.Info = model.CopyMap(action.Info)
	s.actions[action.Name] = action
	return nil
}

func (s *inmemMetadataStorage) DeleteActionDefinition(action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.actions, action)
	return nil
}

func (s *inmemMetadataStorage) GetActionDefinition(action string) (*model.ActionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.actions[action]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "action", Key: action}
	}
	def.Info = model.CopyMap(def.Info)
	return &def, nil
}

func (s *inmemMetadataStorage) ListActionDefinitions() ([]model.ActionDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ActionDefinition, 0, len(s.actions))
	for _, def := range s.actions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
