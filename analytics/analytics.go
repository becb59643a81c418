package analytics

import (
	"sync"
	"time"

	"github.com/mohitkumar/actionbus/model"
)

type DataCollectorConfig struct {
	FileName      string            `mapstructure:"file_name"`
	CollectorType DataCollectorType `mapstructure:"collector_type"`
}

type DataCollectorType string

const NOOP_DATA_COLLECTOR DataCollectorType = ""
const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"

type ActionDataCollector interface {
	RecordAccepted(name string, id uint64, timeout time.Duration, params map[string]string)
	RecordRejected(name string, id uint64, activeId uint64)
	RecordCompleted(name string, id uint64, status model.Status, duration time.Duration, info map[string]string)
}

var (
	mu        sync.RWMutex
	collector ActionDataCollector = noopCollector{}
)

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileDataCollector(config.FileName)
		if err != nil {
			return err
		}
		SetDataCollector(c)
	default:
		SetDataCollector(noopCollector{})
	}
	return nil
}

func SetDataCollector(c ActionDataCollector) {
	mu.Lock()
	defer mu.Unlock()
	collector = c
}

func current() ActionDataCollector {
	mu.RLock()
	defer mu.RUnlock()
	return collector
}

func RecordAccepted(name string, id uint64, timeout time.Duration, params map[string]string) {
	current().RecordAccepted(name, id, timeout, params)
}

func RecordRejected(name string, id uint64, activeId uint64) {
	current().RecordRejected(name, id, activeId)
}

func RecordCompleted(name string, id uint64, status model.Status, duration time.Duration, info map[string]string) {
	current().RecordCompleted(name, id, status, duration, info)
}

type noopCollector struct{}

func (noopCollector) RecordAccepted(string, uint64, time.Duration, map[string]string) {}
func (noopCollector) RecordRejected(string, uint64, uint64)                           {}
func (noopCollector) RecordCompleted(string, uint64, model.Status, time.Duration, map[string]string) {
}

// Sync flushes the current collector when it buffers records.
func Sync() error {
	if s, ok := current().(interface{ Sync() error }); ok {
		return s.Sync()
	}
	return nil
}
