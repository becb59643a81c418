package config

import (
	"fmt"
	"time"

	"github.com/mohitkumar/actionbus/analytics"
	"github.com/mohitkumar/actionbus/logger"
	"github.com/mohitkumar/actionbus/model"
)

type BusType string

type StorageType string

const BUS_TYPE_MEMORY BusType = "memory"
const BUS_TYPE_REDIS BusType = "redis"

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type EncoderDecoderType string

const JSON_ENCODER_DECODER EncoderDecoderType = "JSON"
const CBOR_ENCODER_DECODER EncoderDecoderType = "CBOR"
const PROTO_ENCODER_DECODER EncoderDecoderType = "PROTO"

const TOPIC_DISPATCH = "action/dispatch"
const TOPIC_FEEDBACK = "action/feedback"

const DEFAULT_POLL_INTERVAL = 1 * time.Second

type Config struct {
	Topics             TopicConfig                   `mapstructure:"topics"`
	BusType            BusType                       `mapstructure:"bus_type"`
	StorageType        StorageType                   `mapstructure:"storage_type"`
	RedisConfig        RedisConfig                   `mapstructure:"redis"`
	EncoderDecoderType EncoderDecoderType            `mapstructure:"encoder_decoder"`
	HttpPort           int                           `mapstructure:"http_port"`
	GrpcPort           int                           `mapstructure:"grpc_port"`
	PollInterval       time.Duration                 `mapstructure:"poll_interval"`
	FeedbackStyle      model.FeedbackStyle           `mapstructure:"feedback_style"`
	MonitorConfig      MonitorConfig                 `mapstructure:"monitor"`
	AnalyticsConfig    analytics.DataCollectorConfig `mapstructure:"analytics"`
	Log                logger.Config                 `mapstructure:"log"`
	Actions            []model.ActionDefinition      `mapstructure:"actions"`
}

type TopicConfig struct {
	Dispatch string `mapstructure:"dispatch"`
	Feedback string `mapstructure:"feedback"`
}

type RedisConfig struct {
	Addrs     []string `mapstructure:"addrs"`
	Namespace string   `mapstructure:"namespace"`
	Password  string   `mapstructure:"password"`
	PoolSize  int      `mapstructure:"pool_size"`
}

type MonitorConfig struct {
	Expiration      time.Duration `mapstructure:"expiration"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func DefaultTopics() TopicConfig {
	return TopicConfig{
		Dispatch: TOPIC_DISPATCH,
		Feedback: TOPIC_FEEDBACK,
	}
}

func Default() Config {
	return Config{
		Topics:             DefaultTopics(),
		BusType:            BUS_TYPE_MEMORY,
		StorageType:        STORAGE_TYPE_INMEM,
		EncoderDecoderType: JSON_ENCODER_DECODER,
		RedisConfig: RedisConfig{
			Addrs:     []string{"localhost:6379"},
			Namespace: "actionbus",
		},
		HttpPort:      8080,
		GrpcPort:      8099,
		PollInterval:  DEFAULT_POLL_INTERVAL,
		FeedbackStyle: model.FEEDBACK_CONTINUOUS,
		MonitorConfig: MonitorConfig{
			Expiration:      10 * time.Minute,
			CleanupInterval: time.Minute,
		},
		Log: logger.Config{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stdout"},
		},
	}
}

func (c Config) Validate() error {
	if c.Topics.Dispatch == "" || c.Topics.Feedback == "" {
		return fmt.Errorf("dispatch and feedback topics can not be empty")
	}
	if c.Topics.Dispatch == c.Topics.Feedback {
		return fmt.Errorf("dispatch and feedback topics must differ, both are %s", c.Topics.Dispatch)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %s", c.PollInterval)
	}
	switch c.BusType {
	case BUS_TYPE_MEMORY, BUS_TYPE_REDIS:
	default:
		return fmt.Errorf("invalid bus implementation %s", c.BusType)
	}
	switch c.StorageType {
	case STORAGE_TYPE_INMEM, STORAGE_TYPE_REDIS:
	default:
		return fmt.Errorf("invalid storage implementation %s", c.StorageType)
	}
	switch c.FeedbackStyle {
	case model.FEEDBACK_SINGLE, model.FEEDBACK_CONTINUOUS:
	default:
		return fmt.Errorf("invalid feedback style %s", c.FeedbackStyle)
	}
	return nil
}
