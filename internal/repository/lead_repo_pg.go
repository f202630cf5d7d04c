package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/paintpro/appointments/internal/domain"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *domain.Lead) error
}

type PGLeadRepository struct {
	db DB
}

func NewLeadRepository(db DB) LeadRepository {
	return &PGLeadRepository{db: db}
}

func (r *PGLeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `INSERT INTO leads (id, name, email, phone, address, notes, source, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.Address, lead.Notes, lead.Source, string(lead.Status)).
		Scan(&lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

var _ LeadRepository = (*PGLeadRepository)(nil)
