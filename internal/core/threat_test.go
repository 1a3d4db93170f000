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

func TestNewThreatService(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)

	require.NotNil(t, svc)
	assert.Equal(t, db, svc.db)
}

// ---------- Create ----------

func TestThreatService_Create_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	threat := &model.Threat{
		Type:          "malware",
		Severity:      model.SeverityHigh,
		Title:         "Emotet C2",
		Indicator:     "203.0.113.10",
		IndicatorKind: "ip",
	}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Create(ctx, threat)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(threat.ID, "thr-"))
	assert.Equal(t, model.ThreatActive, threat.Status)
	assert.Equal(t, 70, threat.Score)
	assert.False(t, threat.FirstSeenAt.IsZero())
	db.AssertExpectations(t)
}

func TestThreatService_Create_InsertError(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	threat := &model.Threat{Type: "phishing", Severity: model.SeverityLow}

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(pgconn.CommandTag{}, errors.New("db error"))

	err := svc.Create(ctx, threat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create threat")
	db.AssertExpectations(t)
}

func TestThreatService_Create_DefaultScores(t *testing.T) {
	tests := []struct {
		severity string
		want     int
	}{
		{model.SeverityCritical, 90},
		{model.SeverityHigh, 70},
		{model.SeverityMedium, 40},
		{model.SeverityLow, 10},
	}

	for _, tt := range tests {
		t.Run(tt.severity, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultScore(tt.severity))
		})
	}
}

// ---------- Upsert ----------

func TestThreatService_Upsert_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	feed := "abuse-ch"
	threat := &model.Threat{
		Type:          "botnet",
		Severity:      model.SeverityCritical,
		Title:         "Mirai node",
		Indicator:     "198.51.100.7",
		IndicatorKind: "ip",
		SourceFeed:    &feed,
	}

	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "ON CONFLICT (indicator)")
	}), mock.Anything).Return(pgconn.CommandTag{}, nil)

	err := svc.Upsert(ctx, threat)
	require.NoError(t, err)
	assert.Equal(t, 90, threat.Score)
	db.AssertExpectations(t)
}

// ---------- GetByID ----------

func TestThreatService_GetByID_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "thr-abc123"
		*(dest[1].(*string)) = "malware"
		*(dest[2].(*string)) = model.SeverityHigh
		*(dest[3].(*string)) = model.ThreatActive
		*(dest[4].(*int)) = 70
		*(dest[5].(*string)) = "Emotet C2"
		*(dest[6].(*string)) = "Known command and control host"
		*(dest[7].(*string)) = "203.0.113.10"
		*(dest[8].(*string)) = "ip"
		*(dest[15].(*time.Time)) = now
		*(dest[16].(*time.Time)) = now
		*(dest[17].(*time.Time)) = now
		*(dest[18].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	result, err := svc.GetByID(ctx, "thr-abc123")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "thr-abc123", result.ID)
	assert.Equal(t, model.SeverityHigh, result.Severity)
	assert.Equal(t, "203.0.113.10", result.Indicator)
	db.AssertExpectations(t)
}

func TestThreatService_GetByID_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("no rows in result set")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	result, err := svc.GetByID(ctx, "thr-missing")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "get threat")
	db.AssertExpectations(t)
}

// ---------- List ----------

func TestThreatService_List_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	now := time.Now()
	rows := newMockRows(
		func(dest ...any) error {
			*(dest[0].(*string)) = "thr-1"
			*(dest[2].(*string)) = model.SeverityCritical
			*(dest[17].(*time.Time)) = now
			return nil
		},
		func(dest ...any) error {
			*(dest[0].(*string)) = "thr-2"
			*(dest[2].(*string)) = model.SeverityHigh
			*(dest[17].(*time.Time)) = now.Add(-time.Hour)
			return nil
		},
	)
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	threats, hasMore, err := svc.List(ctx, ThreatFilters{}, 50, "")
	require.NoError(t, err)
	assert.Len(t, threats, 2)
	assert.False(t, hasMore)
	assert.Equal(t, "thr-1", threats[0].ID)
	db.AssertExpectations(t)
}

func TestThreatService_List_FiltersInQuery(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "severity = $1") &&
			strings.Contains(sql, "status = $2") &&
			strings.Contains(sql, "source_feed = $3")
	}), mock.Anything).Return(newEmptyMockRows(), nil)

	_, _, err := svc.List(ctx, ThreatFilters{
		Severity: model.SeverityHigh,
		Status:   model.ThreatActive,
		Feed:     "abuse-ch",
	}, 50, "")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestThreatService_List_HasMore(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	scanFuncs := make([]func(dest ...any) error, 3)
	for i := range scanFuncs {
		id := "thr-" + string(rune('a'+i))
		scanFuncs[i] = func(dest ...any) error {
			*(dest[0].(*string)) = id
			return nil
		}
	}
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(newMockRows(scanFuncs...), nil)

	threats, hasMore, err := svc.List(ctx, ThreatFilters{}, 2, "")
	require.NoError(t, err)
	assert.Len(t, threats, 2)
	assert.True(t, hasMore)
	db.AssertExpectations(t)
}

// ---------- UpdateStatus ----------

func TestThreatService_UpdateStatus_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := svc.UpdateStatus(ctx, "thr-abc123", model.ThreatMitigated)
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestThreatService_UpdateStatus_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.UpdateStatus(ctx, "thr-missing", model.ThreatArchived)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	db.AssertExpectations(t)
}

// ---------- Delete ----------

func TestThreatService_Delete_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewThreatService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	err := svc.Delete(ctx, "thr-abc123")
	require.NoError(t, err)
	db.AssertExpectations(t)
}
