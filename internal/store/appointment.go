package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/omnavneet/nerveconnect-sub000/internal/booking"
	"github.com/omnavneet/nerveconnect-sub000/internal/model"
)

// AppointmentStarts loads every booked start instant for a provider. The
// conflict window is provider-global, so there is no date filter.
func (s *Store) AppointmentStarts(ctx context.Context, providerID string) ([]time.Time, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT start_time FROM appointments WHERE provider_id = $1`, providerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		starts = append(starts, t)
	}
	return starts, rows.Err()
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	_, err := s.q(ctx).Exec(ctx,
		`INSERT INTO appointments (id, provider_id, patient_id, start_time, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.ProviderID, a.PatientID, a.StartTime, a.CreatedAt,
	)
	return err
}

func (s *Store) ListAppointments(ctx context.Context, providerID string) ([]model.Appointment, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT id, provider_id, patient_id, start_time, created_at
		 FROM appointments
		 WHERE provider_id = $1
		 ORDER BY start_time`, providerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.ProviderID, &a.PatientID, &a.StartTime, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.q(ctx).QueryRow(ctx,
		`SELECT id, provider_id, patient_id, start_time, created_at
		 FROM appointments WHERE id = $1`, id,
	).Scan(&a.ID, &a.ProviderID, &a.PatientID, &a.StartTime, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
