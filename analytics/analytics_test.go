package analytics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohitkumar/actionbus/model"
	"github.com/stretchr/testify/require"
)

func TestLogFileDataCollector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytics.log")
	require.NoError(t, InitDataCollector(DataCollectorConfig{FileName: path, CollectorType: LOG_FILE_DATA_COLLECTOR}))
	defer SetDataCollector(noopCollector{})

	RecordAccepted("nav/goto", 2, 5*time.Second, map[string]string{"x": "1"})
	RecordRejected("nav/goto", 3, 2)
	RecordCompleted("nav/goto", 2, model.STATUS_SUCCESS, time.Second, nil)
	require.NoError(t, Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, want := range []string{`"msg":"accepted"`, `"msg":"rejected"`, `"msg":"completed"`, `"activeId":2`, `"status":"SUCCESS"`} {
		require.Contains(t, string(data), want)
	}
}

func TestNoopDataCollector(t *testing.T) {
	require.NoError(t, InitDataCollector(DataCollectorConfig{}))
	RecordAccepted("nav/goto", 2, 0, nil)
	require.NoError(t, Sync())
}
