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

// ---------- Block ----------

func TestBlockService_Block_New(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("no rows in result set")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "system:expired")
	}), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO blocked_entities")
	}), mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	entity := &model.BlockedEntity{
		Kind:      model.EntityIP,
		Value:     "203.0.113.10",
		Reason:    "manual block",
		BlockedBy: "analyst@example.com",
	}

	created, err := svc.Block(ctx, entity)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, strings.HasPrefix(entity.ID, "blk-"))
	db.AssertExpectations(t)
}

func TestBlockService_Block_ConcurrentDuplicate(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	// No active block at check time, but the insert loses the race: the
	// unique index turns it into a no-op and the winner is returned.
	now := time.Now()
	noRows := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("no rows in result set")
	}}
	winner := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "blk-winner"
		*(dest[1].(*string)) = model.EntityIP
		*(dest[2].(*string)) = "203.0.113.10"
		*(dest[3].(*string)) = "auto-blocked: critical live_attack"
		*(dest[4].(*string)) = "auto-blocker"
		*(dest[8].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRows).Once()
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "system:expired")
	}), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "ON CONFLICT (value) WHERE unblocked_at IS NULL DO NOTHING")
	}), mock.Anything).Return(pgconn.NewCommandTag("INSERT 0 0"), nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(winner).Once()

	entity := &model.BlockedEntity{
		Kind:      model.EntityIP,
		Value:     "203.0.113.10",
		Reason:    "manual block",
		BlockedBy: "analyst@example.com",
	}

	created, err := svc.Block(ctx, entity)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "blk-winner", entity.ID)
	assert.Equal(t, "auto-blocker", entity.BlockedBy)
	db.AssertExpectations(t)
}

func TestBlockService_Block_Dedupe(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	now := time.Now()
	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "blk-existing"
		*(dest[1].(*string)) = model.EntityIP
		*(dest[2].(*string)) = "203.0.113.10"
		*(dest[3].(*string)) = "earlier block"
		*(dest[4].(*string)) = "auto-blocker"
		*(dest[8].(*time.Time)) = now
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	entity := &model.BlockedEntity{
		Kind:      model.EntityIP,
		Value:     "203.0.113.10",
		Reason:    "duplicate attempt",
		BlockedBy: "analyst@example.com",
	}

	created, err := svc.Block(ctx, entity)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "blk-existing", entity.ID)
	assert.Equal(t, "earlier block", entity.Reason)
	db.AssertExpectations(t)
}

func TestBlockService_Block_InsertError(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("no rows in result set")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "system:expired")
	}), mock.Anything).Return(pgconn.NewCommandTag("UPDATE 0"), nil)
	db.On("Exec", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO blocked_entities")
	}), mock.Anything).Return(pgconn.CommandTag{}, errors.New("db error"))

	entity := &model.BlockedEntity{Kind: model.EntityDomain, Value: "evil.example"}

	_, err := svc.Block(ctx, entity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block entity")
	db.AssertExpectations(t)
}

// ---------- Unblock ----------

func TestBlockService_Unblock_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 1"), nil)

	err := svc.Unblock(ctx, "blk-abc123", "admin@example.com")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestBlockService_Unblock_AlreadyUnblocked(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("UPDATE 0"), nil)

	err := svc.Unblock(ctx, "blk-abc123", "admin@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found or already unblocked")
	db.AssertExpectations(t)
}

// ---------- IsBlocked ----------

func TestBlockService_IsBlocked(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*int)) = 1
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	blocked, err := svc.IsBlocked(ctx, "203.0.113.10")
	require.NoError(t, err)
	assert.True(t, blocked)
	db.AssertExpectations(t)
}

// ---------- List ----------

func TestBlockService_List_ActiveOnly(t *testing.T) {
	db := &mockDB{}
	svc := NewBlockService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "unblocked_at IS NULL")
	}), mock.Anything).Return(newEmptyMockRows(), nil)

	entities, hasMore, err := svc.List(ctx, BlockFilters{ActiveOnly: true}, 50, "")
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.False(t, hasMore)
	db.AssertExpectations(t)
}
