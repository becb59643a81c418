package action

import (
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/actionbus/config"
	"github.com/mohitkumar/actionbus/model"
)

type options struct {
	topics        config.TopicConfig
	encDecType    config.EncoderDecoderType
	feedbackStyle model.FeedbackStyle
	pollInterval  time.Duration
	source        string
	clock         func() time.Time
}

type Option func(*options)

func defaultOptions() options {
	return options{
		topics:        config.DefaultTopics(),
		encDecType:    config.JSON_ENCODER_DECODER,
		feedbackStyle: model.FEEDBACK_CONTINUOUS,
		pollInterval:  config.DEFAULT_POLL_INTERVAL,
		source:        uuid.NewString(),
		clock:         time.Now,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTopics overrides both shared topics. Empty fields keep their default.
func WithTopics(topics config.TopicConfig) Option {
	return func(o *options) {
		if topics.Dispatch != "" {
			o.topics.Dispatch = topics.Dispatch
		}
		if topics.Feedback != "" {
			o.topics.Feedback = topics.Feedback
		}
	}
}

func WithDispatchTopic(topic string) Option {
	return WithTopics(config.TopicConfig{Dispatch: topic})
}

func WithFeedbackTopic(topic string) Option {
	return WithTopics(config.TopicConfig{Feedback: topic})
}

func WithEncoderDecoder(encDecType config.EncoderDecoderType) Option {
	return func(o *options) {
		o.encDecType = encDecType
	}
}

// WithFeedbackStyle only affects servers.
func WithFeedbackStyle(style model.FeedbackStyle) Option {
	return func(o *options) {
		if style != "" {
			o.feedbackStyle = style
		}
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

func WithSource(source string) Option {
	return func(o *options) {
		o.source = source
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}
