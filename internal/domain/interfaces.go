package domain

import (
	"context"

	"garagelog/internal/models"
)

// Repository is the storage engine surface consumed by the service and
// analytics layers. Implementations do not chain calls under a shared
// transaction: every operation is an independent unit of work.
type Repository interface {
	InsertRecord(ctx context.Context, rec *models.ServiceRecord) error
	GetRecord(ctx context.Context, id string) (*models.ServiceRecord, error)
	ListRecords(ctx context.Context, vehicleID string) ([]models.ServiceRecord, error)
	ListRecordsByModel(ctx context.Context, model string) ([]models.ServiceRecord, error)
	UpdateRecord(ctx context.Context, rec *models.ServiceRecord) error
	DeleteRecord(ctx context.Context, id string) (int64, error)
	DeleteRecordsByModel(ctx context.Context, model string) (bool, error)
	UpdateCostByModel(ctx context.Context, model string, cost float64) (bool, error)

	CreateMechanic(ctx context.Context, m *models.Mechanic) error
	GetMechanic(ctx context.Context, id string) (*models.Mechanic, error)
	ListMechanics(ctx context.Context) ([]models.Mechanic, error)
	UpdateMechanic(ctx context.Context, m *models.Mechanic) error
	DeleteMechanic(ctx context.Context, id string) (bool, error)
}
