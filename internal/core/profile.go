package core

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/edlund/sentinel/internal/model"
	"github.com/edlund/sentinel/internal/platform"
)

type ProfileService struct {
	db DB
}

func NewProfileService(db DB) *ProfileService {
	return &ProfileService{db: db}
}

// Create registers a profile with a bcrypt-hashed password and assigns the
// initial role (viewer unless specified).
func (s *ProfileService) Create(ctx context.Context, email, displayName, password, role, grantedBy string) (*model.Profile, error) {
	if role == "" {
		role = model.RoleViewer
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &model.Profile{
		ID:          platform.NewID(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO profiles (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Email, p.DisplayName, string(hash), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO user_roles (profile_id, role, granted_by, created_at)
		 VALUES ($1, $2, $3, $4)`,
		p.ID, role, grantedBy, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	return p, nil
}

// GetByID returns a profile by ID.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRow(ctx,
		`SELECT id, email, display_name, created_at, updated_at FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Email, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// List returns profiles, paginated.
func (s *ProfileService) List(ctx context.Context, limit int, cursor string) ([]model.Profile, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT id, email, display_name, created_at, updated_at FROM profiles`
	var args []any
	if cursor != "" {
		query += ` WHERE created_at < (SELECT created_at FROM profiles WHERE id = $1)
		           ORDER BY created_at DESC LIMIT $2`
		args = []any{cursor, limit + 1}
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = []any{limit + 1}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	hasMore := len(profiles) > limit
	if hasMore {
		profiles = profiles[:limit]
	}
	return profiles, hasMore, nil
}

// RoleOf returns the role assigned to a profile, or viewer if none.
func (s *ProfileService) RoleOf(ctx context.Context, profileID string) (string, error) {
	var role string
	err := s.db.QueryRow(ctx,
		`SELECT role FROM user_roles WHERE profile_id = $1`, profileID,
	).Scan(&role)
	if err != nil {
		return model.RoleViewer, nil
	}
	return role, nil
}

// SetRole replaces a profile's role. Admin-gated at the handler.
func (s *ProfileService) SetRole(ctx context.Context, profileID, role, grantedBy string) error {
	if !model.ValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO user_roles (profile_id, role, granted_by, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (profile_id) DO UPDATE SET role = EXCLUDED.role, granted_by = EXCLUDED.granted_by`,
		profileID, role, grantedBy,
	)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// VerifyPassword checks a profile's password. Returns the profile on success.
func (s *ProfileService) VerifyPassword(ctx context.Context, email, password string) (*model.Profile, error) {
	var p model.Profile
	var hash string
	err := s.db.QueryRow(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM profiles WHERE email = $1`, email,
	).Scan(&p.ID, &p.Email, &p.DisplayName, &hash, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("profile not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return &p, nil
}

// Delete removes a profile and its role assignment.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM user_roles WHERE profile_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user role: %w", err)
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s not found", id)
	}
	return nil
}
