package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edlund/sentinel/internal/model"
)

func TestDashboardService_Stats(t *testing.T) {
	db := &mockDB{}
	svc := NewDashboardService(db)
	ctx := context.Background()

	intsRow := func(values ...int) *mockRow {
		return &mockRow{scanFunc: func(dest ...any) error {
			for i, v := range values {
				*(dest[i].(*int)) = v
			}
			return nil
		}}
	}

	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM threats")
	}), mock.Anything).Return(intsRow(120, 87))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM live_attacks")
	}), mock.Anything).Return(intsRow(340, 12))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM incidents") && strings.Contains(sql, "count")
	}), mock.Anything).Return(intsRow(5, 2))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM blocked_entities")
	}), mock.Anything).Return(intsRow(9))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM monitors")
	}), mock.Anything).Return(intsRow(3))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM scan_results")
	}), mock.Anything).Return(intsRow(17))
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "resolved_at - created_at")
	}), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		mttr := 3600.0
		*(dest[0].(**float64)) = &mttr
		return nil
	}})

	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "GROUP BY severity")
	}), mock.Anything).Return(newMockRows(
		func(dest ...any) error {
			*(dest[0].(*string)) = model.SeverityCritical
			*(dest[1].(*int)) = 4
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = model.SeverityHigh
			*(dest[1].(*int)) = 21
			return nil
		},
	), nil)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalThreats)
	assert.Equal(t, 87, stats.ActiveThreats)
	assert.Equal(t, 4, stats.ThreatsBySeverity[model.SeverityCritical])
	assert.Equal(t, 340, stats.AttacksLast24h)
	assert.Equal(t, 12, stats.BlockedLast24h)
	assert.Equal(t, 5, stats.OpenIncidents)
	assert.Equal(t, 2, stats.CriticalIncidents)
	assert.Equal(t, 9, stats.ActiveBlocks)
	assert.Equal(t, 3, stats.RunningMonitors)
	assert.Equal(t, 17, stats.ScansLast24h)
	require.NotNil(t, stats.MTTRSeconds)
	assert.InDelta(t, 3600.0, *stats.MTTRSeconds, 0.1)
	assert.False(t, stats.GeneratedAt.IsZero())
	db.AssertExpectations(t)
}
