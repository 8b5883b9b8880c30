package recorder

import "github.com/bantoinese83/Portfolio-Watchdog/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(_ *ScanRun) error { return nil }
func (n *NoopRecorder) History(_ string, _ int) ([]model.TrafficLightResult, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
