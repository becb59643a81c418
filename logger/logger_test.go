package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitFileOutput(t *testing.T) {
	dir := t.TempDir()
	for scenario, conf := range map[string]Config{
		"json file": {
			Level:   "debug",
			Format:  "json",
			Outputs: []string{filepath.Join(dir, "json", "actionbus.log")},
		},
		"rotated console file": {
			Level:    "info",
			Outputs:  []string{filepath.Join(dir, "rotated.log")},
			Rotation: Rotation{Enable: true},
		},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.NoError(t, Init(conf))
			defer func() { log = zap.NewNop() }()

			Debug("debug message", zap.String("action", "nav/goto"))
			Info("dispatch accepted", zap.String("action", "nav/goto"), zap.Uint64("id", 2))
			Sync()

			data, err := os.ReadFile(conf.Outputs[0])
			require.NoError(t, err)
			require.Contains(t, string(data), "dispatch accepted")
			require.Contains(t, string(data), "nav/goto")
			if conf.Level == "info" {
				require.NotContains(t, string(data), "debug message")
			}
		})
	}
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.log")
	require.NoError(t, Init(Config{Level: "chatty", Outputs: []string{path}}))
	defer func() { log = zap.NewNop() }()

	Debug("hidden")
	Warn("shown")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden")
	require.Contains(t, string(data), "shown")
	require.Equal(t, L(), zap.L())
}
