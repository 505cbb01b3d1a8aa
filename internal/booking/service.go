package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omnavneet/nerveconnect-sub000/internal/model"
)

// Store is the persistence surface a booking attempt depends on. Calls made
// inside the function passed to WithProviderLock must observe the transaction
// it opened, and the lock must serialize attempts for the same provider.
type Store interface {
	FindOrCreatePatient(ctx context.Context, name string) (string, error)
	FindOrCreateProvider(ctx context.Context, name string) (string, error)
	ProviderByName(ctx context.Context, name string) (*model.Provider, error)
	AppointmentStarts(ctx context.Context, providerID string) ([]time.Time, error)
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	ListAppointments(ctx context.Context, providerID string) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	WithProviderLock(ctx context.Context, providerName string, fn func(ctx context.Context) error) error
}

// Request is one booking attempt. DateTime is an ISO-8601 string: RFC 3339,
// or a zone-less form interpreted in the service location.
type Request struct {
	PatientName  string
	ProviderName string
	DateTime     string
}

// Confirmation is returned for a committed booking.
type Confirmation struct {
	AppointmentID string
	PatientName   string
	ProviderName  string
	StartTime     time.Time
	Message       string
}

// Service runs booking attempts end to end: validate, parse, resolve the
// patient and provider, check the slot and commit. It holds no state of its
// own beyond configuration.
type Service struct {
	store   Store
	checker *Checker
	now     func() time.Time
	loc     *time.Location
	log     zerolog.Logger

	// txIdentities moves identity resolution inside the provider lock so a
	// failed attempt leaves no patient or provider rows behind.
	txIdentities bool
}

type Option func(*Service)

// WithClock overrides the clock used for the future-time check.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the location zone-less datetimes are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithTransactionalIdentities rolls patient/provider upserts back together
// with a failed attempt instead of letting them stick.
func WithTransactionalIdentities() Option {
	return func(s *Service) { s.txIdentities = true }
}

func NewService(st Store, checker *Checker, opts ...Option) *Service {
	s := &Service{
		store:   st,
		checker: checker,
		now:     time.Now,
		loc:     time.Local,
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Zone-less layouts come from the transcript extractor and from clients that
// send local wall-clock times.
var layouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04"}

func (s *Service) parseStart(raw string) (time.Time, error) {
	for _, layout := range layouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}

// Book runs a single booking attempt. It returns a *ValidationError,
// *PastTimeError, *ConflictError or *PersistenceError on failure; nothing is
// retried and a failure at any step aborts the rest. Unless the service was
// built with transactional identities, patient and provider rows created here
// survive a later conflict.
func (s *Service) Book(ctx context.Context, req Request) (*Confirmation, error) {
	if req.PatientName == "" {
		return nil, &ValidationError{Reason: "patient name is required"}
	}
	if req.ProviderName == "" {
		return nil, &ValidationError{Reason: "provider name is required"}
	}
	if req.DateTime == "" {
		return nil, &ValidationError{Reason: "appointment time is required"}
	}

	start, err := s.parseStart(req.DateTime)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("unrecognized appointment time %q", req.DateTime)}
	}
	if !start.After(s.now()) {
		return nil, &PastTimeError{Requested: start}
	}

	var patientID, providerID string
	if !s.txIdentities {
		if patientID, err = s.store.FindOrCreatePatient(ctx, req.PatientName); err != nil {
			return nil, &PersistenceError{Op: "resolve patient", Err: err}
		}
		if providerID, err = s.store.FindOrCreateProvider(ctx, req.ProviderName); err != nil {
			return nil, &PersistenceError{Op: "resolve provider", Err: err}
		}
	}

	var apt *model.Appointment
	err = s.store.WithProviderLock(ctx, req.ProviderName, func(ctx context.Context) error {
		if s.txIdentities {
			if patientID, err = s.store.FindOrCreatePatient(ctx, req.PatientName); err != nil {
				return &PersistenceError{Op: "resolve patient", Err: err}
			}
			if providerID, err = s.store.FindOrCreateProvider(ctx, req.ProviderName); err != nil {
				return &PersistenceError{Op: "resolve provider", Err: err}
			}
		}

		starts, err := s.store.AppointmentStarts(ctx, providerID)
		if err != nil {
			return &PersistenceError{Op: "load schedule", Err: err}
		}
		if s.checker.HasConflict(start, starts) {
			return &ConflictError{Provider: req.ProviderName, Requested: start}
		}

		apt = &model.Appointment{
			ID:         uuid.New().String(),
			ProviderID: providerID,
			PatientID:  patientID,
			StartTime:  start,
			CreatedAt:  s.now(),
		}
		if err := s.store.CreateAppointment(ctx, apt); err != nil {
			return &PersistenceError{Op: "create appointment", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, asBookingError(err)
	}

	s.log.Info().
		Str("appointment_id", apt.ID).
		Str("provider", req.ProviderName).
		Time("start", start).
		Msg("appointment booked")

	return &Confirmation{
		AppointmentID: apt.ID,
		PatientName:   req.PatientName,
		ProviderName:  req.ProviderName,
		StartTime:     start,
		Message: fmt.Sprintf("Appointment booked for %s with %s at %s",
			req.PatientName, req.ProviderName, start.Format(time.RFC3339)),
	}, nil
}

// ProviderSchedule lists a provider's booked appointments ordered by start.
// An unknown provider yields ErrNotFound; listing never creates identities.
func (s *Service) ProviderSchedule(ctx context.Context, providerName string) ([]model.Appointment, error) {
	if providerName == "" {
		return nil, &ValidationError{Reason: "provider name is required"}
	}
	p, err := s.store.ProviderByName(ctx, providerName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("provider %q: %w", providerName, ErrNotFound)
		}
		return nil, &PersistenceError{Op: "find provider", Err: err}
	}
	apts, err := s.store.ListAppointments(ctx, p.ID)
	if err != nil {
		return nil, &PersistenceError{Op: "list appointments", Err: err}
	}
	return apts, nil
}

func (s *Service) Appointment(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, &ValidationError{Reason: "appointment id is required"}
	}
	apt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("appointment %q: %w", id, ErrNotFound)
		}
		return nil, &PersistenceError{Op: "get appointment", Err: err}
	}
	return apt, nil
}

// asBookingError keeps typed errors raised inside the locked section intact
// and wraps anything the store itself failed with (begin, lock, commit).
func asBookingError(err error) error {
	var (
		ve *ValidationError
		pt *PastTimeError
		ce *ConflictError
		pe *PersistenceError
	)
	if errors.As(err, &ve) || errors.As(err, &pt) || errors.As(err, &ce) || errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: "book transaction", Err: err}
}
