package model

import "time"

type Patient struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Provider struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Appointment struct {
	ID         string
	ProviderID string
	PatientID  string
	StartTime  time.Time
	CreatedAt  time.Time
}
