package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"garagelog/internal/database"
	"garagelog/internal/domain"
	"garagelog/internal/events"
	"garagelog/internal/models"

	"github.com/rs/zerolog"
)

// ErrValidation marks malformed input: missing required fields, bad dates,
// negative amounts. API handlers map it to a 400-equivalent.
var ErrValidation = errors.New("validation failed")

// RecordInput carries boundary values for create/update. Dates are
// YYYY-MM-DD strings; parsing them is this layer's job.
type RecordInput struct {
	ID               string  `json:"id"`
	VehicleModel     string  `json:"vehicle_model"`
	OwnerName        string  `json:"owner_name"`
	OwnerPhoneNumber string  `json:"owner_phone_number"`
	VehicleID        string  `json:"vehicle_id"`
	ServiceDate      string  `json:"service_date"`
	ServiceType      string  `json:"service_type"`
	Description      string  `json:"description"`
	Mileage          int64   `json:"mileage"`
	Cost             float64 `json:"cost"`
	NextServiceDate  string  `json:"next_service_date"`
	MechanicID       string  `json:"mechanic_id"`
}

// RecordService orchestrates service record writes: field validation,
// boundary date parsing and vehicle id derivation. The store handle is
// injected; there is no process-wide instance.
type RecordService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	bus    *events.EventBus
}

func NewRecordService(repo domain.Repository, logger *zerolog.Logger) *RecordService {
	return &RecordService{repo: repo, logger: logger}
}

// WithEvents attaches a bus; lifecycle events publish after each
// successful write.
func (s *RecordService) WithEvents(bus *events.EventBus) *RecordService {
	s.bus = bus
	return s
}

func (s *RecordService) publishRecordEvent(eventType string, rec *models.ServiceRecord) {
	_ = s.bus.PublishJSON(eventType, events.RecordEventPayload{
		RecordID:     rec.ID,
		VehicleModel: rec.VehicleModel,
		VehicleID:    rec.VehicleID,
		ServiceType:  rec.ServiceType,
		Cost:         rec.Cost,
	})
}

// CreateRecord validates input, derives ids when absent and stores the
// record. The derived vehicle id is the slugified model plus a random
// 4-digit suffix; collisions are possible and not detected.
func (s *RecordService) CreateRecord(ctx context.Context, in RecordInput) (*models.ServiceRecord, error) {
	rec, err := s.toRecord(in)
	if err != nil {
		return nil, err
	}

	if rec.VehicleID == "" && rec.VehicleModel != "" {
		rec.VehicleID = deriveVehicleID(rec.VehicleModel)
	}

	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("id", rec.ID).
		Str("vehicle_model", rec.VehicleModel).
		Str("service_type", rec.ServiceType).
		Msg("service record created")
	s.publishRecordEvent(events.EventRecordCreated, rec)
	return rec, nil
}

// UpdateRecord replaces the full record keyed by id. Not-found comes back
// from the store's single conditional statement; there is no separate
// existence check to race against a concurrent delete.
func (s *RecordService) UpdateRecord(ctx context.Context, id string, in RecordInput) (*models.ServiceRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}

	rec, err := s.toRecord(in)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	if err := s.repo.UpdateRecord(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id).Msg("service record updated")
	s.publishRecordEvent(events.EventRecordUpdated, rec)
	return rec, nil
}

func (s *RecordService) GetRecord(ctx context.Context, id string) (*models.ServiceRecord, error) {
	return s.repo.GetRecord(ctx, id)
}

func (s *RecordService) ListRecords(ctx context.Context, vehicleID string) ([]models.ServiceRecord, error) {
	return s.repo.ListRecords(ctx, vehicleID)
}

// ListRecordsByModel matches every record whose model contains the fragment,
// case-insensitively. A broad fragment deliberately matches overlapping
// model names ("City" also hits "Honda City VX").
func (s *RecordService) ListRecordsByModel(ctx context.Context, model string) ([]models.ServiceRecord, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("%w: vehicle_model is required", ErrValidation)
	}
	return s.repo.ListRecordsByModel(ctx, model)
}

func (s *RecordService) DeleteRecord(ctx context.Context, id string) error {
	n, err := s.repo.DeleteRecord(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("delete record %s: %w", id, database.ErrNotFound)
	}
	s.logger.Info().Str("id", id).Msg("service record deleted")
	_ = s.bus.PublishJSON(events.EventRecordDeleted, events.RecordEventPayload{RecordID: id})
	return nil
}

// UpdateCostByModel sets a new cost on every record matching the model
// fragment. Returns false when nothing matched.
func (s *RecordService) UpdateCostByModel(ctx context.Context, model string, cost float64) (bool, error) {
	if strings.TrimSpace(model) == "" {
		return false, fmt.Errorf("%w: vehicle_model is required", ErrValidation)
	}
	if cost < 0 {
		return false, fmt.Errorf("%w: cost must be non-negative", ErrValidation)
	}
	updated, err := s.repo.UpdateCostByModel(ctx, model, cost)
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("model", model).Float64("cost", cost).Bool("updated", updated).Msg("bulk cost update")
	_ = s.bus.PublishJSON(events.EventRecordsBulkCost, events.BulkEventPayload{Model: model, Cost: cost, Matched: updated})
	return updated, nil
}

// DeleteByModel removes every record matching the model fragment. Returns
// false when nothing matched.
func (s *RecordService) DeleteByModel(ctx context.Context, model string) (bool, error) {
	if strings.TrimSpace(model) == "" {
		return false, fmt.Errorf("%w: vehicle_model is required", ErrValidation)
	}
	removed, err := s.repo.DeleteRecordsByModel(ctx, model)
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("model", model).Bool("removed", removed).Msg("bulk delete")
	_ = s.bus.PublishJSON(events.EventRecordsBulkDelete, events.BulkEventPayload{Model: model, Matched: removed})
	return removed, nil
}

func (s *RecordService) toRecord(in RecordInput) (*models.ServiceRecord, error) {
	if strings.TrimSpace(in.ServiceType) == "" {
		return nil, fmt.Errorf("%w: service_type is required", ErrValidation)
	}
	if strings.TrimSpace(in.ServiceDate) == "" {
		return nil, fmt.Errorf("%w: service_date is required", ErrValidation)
	}
	if in.Cost < 0 {
		return nil, fmt.Errorf("%w: cost must be non-negative", ErrValidation)
	}
	if in.Mileage < 0 {
		return nil, fmt.Errorf("%w: mileage must be non-negative", ErrValidation)
	}

	serviceDate, err := time.Parse(models.DateLayout, in.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("%w: service_date must be YYYY-MM-DD", ErrValidation)
	}

	var nextDate *time.Time
	if strings.TrimSpace(in.NextServiceDate) != "" {
		parsed, err := time.Parse(models.DateLayout, in.NextServiceDate)
		if err != nil {
			return nil, fmt.Errorf("%w: next_service_date must be YYYY-MM-DD", ErrValidation)
		}
		nextDate = &parsed
	}

	return &models.ServiceRecord{
		ID:               in.ID,
		OwnerName:        in.OwnerName,
		OwnerPhoneNumber: in.OwnerPhoneNumber,
		VehicleModel:     in.VehicleModel,
		VehicleID:        in.VehicleID,
		ServiceDate:      serviceDate,
		ServiceType:      in.ServiceType,
		Description:      in.Description,
		Mileage:          in.Mileage,
		Cost:             in.Cost,
		NextServiceDate:  nextDate,
		MechanicID:       in.MechanicID,
	}, nil
}

// deriveVehicleID builds "hyundai_creta_4821" style ids.
func deriveVehicleID(model string) string {
	slug := strings.ToLower(strings.TrimSpace(model))
	slug = strings.ReplaceAll(slug, " ", "_")
	return fmt.Sprintf("%s_%d", slug, 1000+rand.Intn(9000))
}
