package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edlund/sentinel/internal/model"
)

// ---------- Create ----------

func TestMonitorService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewMonitorService(db)
	ctx := context.Background()

	m := &model.Monitor{Name: "auto-block guard", Kind: model.MonitorAutoBlock}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Create(ctx, m)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.ID, "mon-"))
	assert.Equal(t, model.MonitorStopped, m.Status)
	assert.Equal(t, []byte("{}"), []byte(m.Config))
	db.AssertExpectations(t)
}

// ---------- Start / Stop ----------

func TestMonitorService_Start_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewMonitorService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return args[0] == model.MonitorRunning
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := svc.Start(ctx, "mon-abc123")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestMonitorService_Stop_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewMonitorService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Stop(ctx, "mon-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	db.AssertExpectations(t)
}

// ---------- AutoBlockEnabled ----------

func TestMonitorService_AutoBlockEnabled(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  bool
	}{
		{"enabled", 1, true},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &mockDB{}
			svc := NewMonitorService(db)
			ctx := context.Background()

			row := &mockRow{scanFunc: func(dest ...any) error {
				*(dest[0].(*int)) = tt.count
				return nil
			}}
			db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

			enabled, err := svc.AutoBlockEnabled(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, enabled)
			db.AssertExpectations(t)
		})
	}
}

func TestMonitorService_AutoBlockEnabled_QueryError(t *testing.T) {
	db := &mockDB{}
	svc := NewMonitorService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("db error")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := svc.AutoBlockEnabled(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check auto-block")
	db.AssertExpectations(t)
}

// ---------- MarkStaleOffline ----------

func TestMonitorService_MarkStaleOffline(t *testing.T) {
	db := &mockDB{}
	svc := NewMonitorService(db)
	ctx := context.Background()

	rows := newMockRows(func(dest ...any) error {
		*(dest[0].(*string)) = "mon-1"
		*(dest[1].(*string)) = "feed watcher"
		*(dest[2].(*string)) = model.MonitorFeed
		return nil
	})
	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "RETURNING id, name, kind")
	}), mock.Anything).Return(rows, nil)

	stale, err := svc.MarkStaleOffline(ctx, time.Now().Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "mon-1", stale[0].ID)
	db.AssertExpectations(t)
}

func TestMonitorService_MarkStaleOffline_FeedMonitorsOnly(t *testing.T) {
	db := &mockDB{}
	svc := NewMonitorService(db)
	ctx := context.Background()

	// The seeded auto-block switch and stream monitors run without a
	// heartbeat. The sweep must scope itself to feed monitors, or it would
	// flip the switch offline and disarm auto-blocking within one cycle.
	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "kind = $2")
	}), mock.MatchedBy(func(args []any) bool {
		return len(args) == 4 && args[1] == model.MonitorFeed
	})).Return(newEmptyMockRows(), nil)

	stale, err := svc.MarkStaleOffline(ctx, time.Now().Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)
	db.AssertExpectations(t)
}
