package redis

import (
	"context"
	"errors"
	"sort"

	rd "github.com/go-redis/redis/v9"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/metadata"
	"github.com/mohitkumar/actionbus/model"
	"github.com/mohitkumar/actionbus/persistence"
	"github.com/mohitkumar/actionbus/util"
	"go.uber.org/zap"
)

const ACTION_DEFINITION_KEY string = "ACTION_DEF"

var _ metadata.MetadataStorage = new(redisMetadataStorage)

type redisMetadataStorage struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[model.ActionDefinition]
}

func NewRedisMetadataStorage(conf Config, encoderDecoder util.EncoderDecoder[model.ActionDefinition]) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao:        newBaseDao(conf),
		encoderDecoder: encoderDecoder,
	}
}

func (r *redisMetadataStorage) SaveActionDefinition(action model.ActionDefinition) error {
	data, err := r.encoderDecoder.Encode(action)
	if err != nil {
		return err
	}
	key := r.getNamespaceKey(ACTION_DEFINITION_KEY)
	if err := r.redisClient.HSet(context.Background(), key, action.Name, data).Err(); err != nil {
		logger.Error("error saving action definition", zap.String("action", action.Name), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisMetadataStorage) DeleteActionDefinition(action string) error {
	key := r.getNamespaceKey(ACTION_DEFINITION_KEY)
	if err := r.redisClient.HDel(context.Background(), key, action).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (r *redisMetadataStorage) GetActionDefinition(action string) (*model.ActionDefinition, error) {
	key := r.getNamespaceKey(ACTION_DEFINITION_KEY)
	data, err := r.redisClient.HGet(context.Background(), key, action).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "action", Key: action}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return r.encoderDecoder.Decode([]byte(data))
}

func (r *redisMetadataStorage) ListActionDefinitions() ([]model.ActionDefinition, error) {
	key := r.getNamespaceKey(ACTION_DEFINITION_KEY)
	values, err := r.redisClient.HGetAll(context.Background(), key).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.ActionDefinition, 0, len(values))
	for name, data := range values {
		def, err := r.encoderDecoder.Decode([]byte(data))
		if err != nil {
			logger.Error("can not decode action definition", zap.String("action", name), zap.Error(err))
			continue
		}
		out = append(out, *def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
