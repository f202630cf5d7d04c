package domain

import (
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusNew LeadStatus = "new"
)

const LeadSourceWebsite = "website"

// Lead is a CRM prospect. Appointment requests create one before a slot is booked.
type Lead struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     string
	Address   string
	Notes     string
	Source    string
	Status    LeadStatus
	CreatedAt time.Time
}
