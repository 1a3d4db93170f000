package activity

import (
	"context"
	"fmt"

	"github.com/edlund/sentinel/internal/export"
)

// ExportActivities snapshots datasets to object storage.
type ExportActivities struct {
	exporter *export.Exporter
}

// NewExportActivities creates a new ExportActivities struct. The exporter may
// be nil when no bucket is configured; RunExport then fails cleanly.
func NewExportActivities(exporter *export.Exporter) *ExportActivities {
	return &ExportActivities{exporter: exporter}
}

// RunExport exports the given datasets (all when empty) and returns the
// per-object results.
func (a *ExportActivities) RunExport(ctx context.Context, datasets []string) (*export.Result, error) {
	if a.exporter == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}
	return a.exporter.Export(ctx, datasets)
}
