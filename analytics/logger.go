package analytics

import (
	"os"
	"time"

	"github.com/mohitkumar/actionbus/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ ActionDataCollector = new(LogFileDataCollector)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logFile), zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordAccepted(name string, id uint64, timeout time.Duration, params map[string]string) {
	lc.logger.Info("accepted", zap.String("action", name), zap.Uint64("id", id), zap.Duration("timeout", timeout), zap.Any("params", params))
}

func (lc *LogFileDataCollector) RecordRejected(name string, id uint64, activeId uint64) {
	lc.logger.Info("rejected", zap.String("action", name), zap.Uint64("id", id), zap.Uint64("activeId", activeId))
}

func (lc *LogFileDataCollector) RecordCompleted(name string, id uint64, status model.Status, duration time.Duration, info map[string]string) {
	lc.logger.Info("completed", zap.String("action", name), zap.Uint64("id", id), zap.String("status", string(status)), zap.Duration("duration", duration), zap.Any("info", info))
}

func (lc *LogFileDataCollector) Sync() error {
	return lc.logger.Sync()
}
