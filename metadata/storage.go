package metadata

import "github.com/mohitkumar/actionbus/model"

type MetadataStorage interface {
	SaveActionDefinition(action model.ActionDefinition) error
	DeleteActionDefinition(action string) error
	GetActionDefinition(action string) (*model.ActionDefinition, error)
	ListActionDefinitions() ([]model.ActionDefinition, error)
}
