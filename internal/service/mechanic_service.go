package service

import (
	"context"
	"fmt"
	"strings"

	"garagelog/internal/database"
	"garagelog/internal/domain"
	"garagelog/internal/events"
	"garagelog/internal/models"

	"github.com/rs/zerolog"
)

// MechanicInput carries boundary values for roster writes.
type MechanicInput struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Specialization  string `json:"specialization"`
	ContactNumber   string `json:"contact_number"`
	ExperienceYears int64  `json:"experience_years"`
}

// MechanicService manages the mechanic roster. Deleting a mechanic never
// touches the service records that reference it.
type MechanicService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	bus    *events.EventBus
}

func NewMechanicService(repo domain.Repository, logger *zerolog.Logger) *MechanicService {
	return &MechanicService{repo: repo, logger: logger}
}

// WithEvents attaches a bus; roster events publish after each
// successful write.
func (s *MechanicService) WithEvents(bus *events.EventBus) *MechanicService {
	s.bus = bus
	return s
}

func (s *MechanicService) CreateMechanic(ctx context.Context, in MechanicInput) (*models.Mechanic, error) {
	m, err := toMechanic(in)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateMechanic(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", m.ID).Str("name", m.Name).Msg("mechanic created")
	_ = s.bus.PublishJSON(events.EventMechanicCreated, events.MechanicEventPayload{MechanicID: m.ID, Name: m.Name})
	return m, nil
}

func (s *MechanicService) GetMechanic(ctx context.Context, id string) (*models.Mechanic, error) {
	return s.repo.GetMechanic(ctx, id)
}

func (s *MechanicService) ListMechanics(ctx context.Context) ([]models.Mechanic, error) {
	return s.repo.ListMechanics(ctx)
}

func (s *MechanicService) UpdateMechanic(ctx context.Context, id string, in MechanicInput) (*models.Mechanic, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}

	m, err := toMechanic(in)
	if err != nil {
		return nil, err
	}
	m.ID = id

	if err := s.repo.UpdateMechanic(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id).Msg("mechanic updated")
	return m, nil
}

func (s *MechanicService) DeleteMechanic(ctx context.Context, id string) error {
	removed, err := s.repo.DeleteMechanic(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("delete mechanic %s: %w", id, database.ErrNotFound)
	}
	s.logger.Info().Str("id", id).Msg("mechanic deleted")
	_ = s.bus.PublishJSON(events.EventMechanicDeleted, events.MechanicEventPayload{MechanicID: id})
	return nil
}

func toMechanic(in MechanicInput) (*models.Mechanic, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(in.Specialization) == "" {
		return nil, fmt.Errorf("%w: specialization is required", ErrValidation)
	}
	if strings.TrimSpace(in.ContactNumber) == "" {
		return nil, fmt.Errorf("%w: contact_number is required", ErrValidation)
	}
	if in.ExperienceYears < 0 {
		return nil, fmt.Errorf("%w: experience_years must be non-negative", ErrValidation)
	}

	return &models.Mechanic{
		ID:              in.ID,
		Name:            in.Name,
		Specialization:  in.Specialization,
		ContactNumber:   in.ContactNumber,
		ExperienceYears: in.ExperienceYears,
	}, nil
}
