package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	for scenario, mutate := range map[string]func(c *Config){
		"empty dispatch topic": func(c *Config) { c.Topics.Dispatch = "" },
		"same topics":          func(c *Config) { c.Topics.Feedback = c.Topics.Dispatch },
		"zero poll interval":   func(c *Config) { c.PollInterval = 0 },
		"unknown bus":          func(c *Config) { c.BusType = "kafka" },
		"unknown storage":      func(c *Config) { c.StorageType = "cassandra" },
		"unknown style":        func(c *Config) { c.FeedbackStyle = "SOMETIMES" },
	} {
		t.Run(scenario, func(t *testing.T) {
			c := Default()
			mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestDefaults(t *testing.T) {
	c := Default()
	require.Equal(t, TopicConfig{Dispatch: "action/dispatch", Feedback: "action/feedback"}, c.Topics)
	require.Equal(t, time.Second, c.PollInterval)
	require.Equal(t, BUS_TYPE_MEMORY, c.BusType)
}
