package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/omnavneet/nerveconnect-sub000/internal/booking"
	"github.com/omnavneet/nerveconnect-sub000/internal/model"
)

// Find-or-create is a single upsert so repeated calls with the same name hit
// the unique constraint and return the existing id instead of a duplicate.

func (s *Store) FindOrCreatePatient(ctx context.Context, name string) (string, error) {
	var id string
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO patients (id, name) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		uuid.New().String(), name,
	).Scan(&id)
	return id, err
}

func (s *Store) FindOrCreateProvider(ctx context.Context, name string) (string, error) {
	var id string
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO providers (id, name) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id`,
		uuid.New().String(), name,
	).Scan(&id)
	return id, err
}

func (s *Store) ProviderByName(ctx context.Context, name string) (*model.Provider, error) {
	p := &model.Provider{}
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, name, created_at FROM providers WHERE name = $1`, name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
