package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/platform"
)

// APIKeyService manages machine credentials.
type APIKeyService struct {
	db DB
}

func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key, stores the hash, and returns the model along
// with the raw key string. The raw key must be shown to the caller exactly once.
func (s *APIKeyService) Create(ctx context.Context, name, role string) (*model.APIKey, string, error) {
	if role == "" {
		role = model.RoleViewer
	}
	if !model.ValidRole(role) {
		return nil, "", fmt.Errorf("invalid role %q", role)
	}

	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "snt_" + hex.EncodeToString(rawBytes)

	id := platform.NewID()
	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:12]

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())`,
		id, name, keyHash, keyPrefix, role,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	key := &model.APIKey{
		ID:        id,
		Name:      name,
		KeyPrefix: keyPrefix,
		Role:      role,
	}
	err = s.db.QueryRow(ctx, "SELECT created_at FROM api_keys WHERE id = $1", id).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get api key created_at: %w", err)
	}

	return key, rawKey, nil
}

// List retrieves API keys with cursor-based pagination.
func (s *APIKeyService) List(ctx context.Context, limit int, cursor string) ([]model.APIKey, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, name, key_prefix, role, created_at, revoked_at FROM api_keys`
	var args []any
	if cursor != "" {
		query += ` WHERE created_at < (SELECT created_at FROM api_keys WHERE id = $1)
		           ORDER BY created_at DESC LIMIT $2`
		args = []any{cursor, limit + 1}
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = []any{limit + 1}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.Role, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, false, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}

	hasMore := len(keys) > limit
	if hasMore {
		keys = keys[:limit]
	}
	return keys, hasMore, nil
}

// Revoke soft-deletes an API key by setting revoked_at.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key %s not found or already revoked", id)
	}
	return nil
}
