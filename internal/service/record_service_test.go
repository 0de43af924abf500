package service

import (
	"context"
	"regexp"
	"testing"

	"garagelog/internal/database"
	"garagelog/internal/events"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServices(t *testing.T) (*RecordService, *MechanicService, *database.DB) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRecordService(db, &logger), NewMechanicService(db, &logger), db
}

func validInput() RecordInput {
	return RecordInput{
		VehicleModel:     "Hyundai Creta",
		OwnerName:        "Asha Rao",
		OwnerPhoneNumber: "+91-98765-43210",
		ServiceDate:      "2026-08-01",
		ServiceType:      "oil change",
		Description:      "regular service",
		Mileage:          42000,
		Cost:             3500,
		NextServiceDate:  "2027-02-01",
		MechanicID:       "m-1",
	}
}

func TestCreateRecord_DerivesIDs(t *testing.T) {
	records, _, _ := setupServices(t)

	rec, err := records.CreateRecord(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Regexp(t, regexp.MustCompile(`^hyundai_creta_\d{4}$`), rec.VehicleID)
	require.NotNil(t, rec.NextServiceDate)
	assert.Equal(t, "2027-02-01", rec.NextServiceDate.Format("2006-01-02"))
}

func TestCreateRecord_KeepsProvidedVehicleID(t *testing.T) {
	records, _, _ := setupServices(t)

	in := validInput()
	in.VehicleID = "fleet-007"

	rec, err := records.CreateRecord(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "fleet-007", rec.VehicleID)
}

func TestCreateRecord_Validation(t *testing.T) {
	records, _, _ := setupServices(t)

	tests := []struct {
		name   string
		mutate func(*RecordInput)
	}{
		{"missing service type", func(in *RecordInput) { in.ServiceType = " " }},
		{"missing service date", func(in *RecordInput) { in.ServiceDate = "" }},
		{"bad service date", func(in *RecordInput) { in.ServiceDate = "01/08/2026" }},
		{"bad next service date", func(in *RecordInput) { in.NextServiceDate = "soon" }},
		{"negative cost", func(in *RecordInput) { in.Cost = -1 }},
		{"negative mileage", func(in *RecordInput) { in.Mileage = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := records.CreateRecord(context.Background(), in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateRecord_RoundTrip(t *testing.T) {
	records, _, _ := setupServices(t)
	ctx := context.Background()

	created, err := records.CreateRecord(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.VehicleID = created.VehicleID
	in.Cost = 4200
	in.NextServiceDate = ""

	updated, err := records.UpdateRecord(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Nil(t, updated.NextServiceDate)

	got, err := records.GetRecord(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 4200.0, got.Cost)
	assert.Nil(t, got.NextServiceDate)
}

func TestUpdateRecord_NotFound(t *testing.T) {
	records, _, _ := setupServices(t)

	_, err := records.UpdateRecord(context.Background(), "missing", validInput())
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDeleteRecord_NotFound(t *testing.T) {
	records, _, _ := setupServices(t)

	err := records.DeleteRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestBulkOps_RequireModel(t *testing.T) {
	records, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := records.ListRecordsByModel(ctx, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = records.UpdateCostByModel(ctx, "", 100)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = records.UpdateCostByModel(ctx, "Creta", -1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = records.DeleteByModel(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBulkOps_ReportMatches(t *testing.T) {
	records, _, _ := setupServices(t)
	ctx := context.Background()

	_, err := records.CreateRecord(ctx, validInput())
	require.NoError(t, err)

	updated, err := records.UpdateCostByModel(ctx, "creta", 5000)
	require.NoError(t, err)
	assert.True(t, updated)

	updated, err = records.UpdateCostByModel(ctx, "octavia", 5000)
	require.NoError(t, err)
	assert.False(t, updated)

	removed, err := records.DeleteByModel(ctx, "Creta")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = records.DeleteByModel(ctx, "Creta")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestRecordService_PublishesLifecycleEvents(t *testing.T) {
	records, _, _ := setupServices(t)
	ctx := context.Background()

	bus := events.NewEventBus()
	var seen []string
	for _, eventType := range []string{
		events.EventRecordCreated, events.EventRecordDeleted, events.EventRecordsBulkCost,
	} {
		bus.Subscribe(eventType, func(event *events.Event) error {
			seen = append(seen, event.Type)
			return nil
		})
	}
	records.WithEvents(bus)

	rec, err := records.CreateRecord(ctx, validInput())
	require.NoError(t, err)

	_, err = records.UpdateCostByModel(ctx, "Creta", 4000)
	require.NoError(t, err)

	require.NoError(t, records.DeleteRecord(ctx, rec.ID))

	assert.Equal(t, []string{
		events.EventRecordCreated,
		events.EventRecordsBulkCost,
		events.EventRecordDeleted,
	}, seen)
}

func TestMechanicService_Validation(t *testing.T) {
	_, mechanics, _ := setupServices(t)
	ctx := context.Background()

	_, err := mechanics.CreateMechanic(ctx, MechanicInput{Specialization: "engine", ContactNumber: "123"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = mechanics.CreateMechanic(ctx, MechanicInput{Name: "Ravi", ContactNumber: "123"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = mechanics.CreateMechanic(ctx, MechanicInput{Name: "Ravi", Specialization: "engine"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = mechanics.CreateMechanic(ctx, MechanicInput{
		Name: "Ravi", Specialization: "engine", ContactNumber: "123", ExperienceYears: -1,
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMechanicService_Lifecycle(t *testing.T) {
	_, mechanics, _ := setupServices(t)
	ctx := context.Background()

	created, err := mechanics.CreateMechanic(ctx, MechanicInput{
		Name:            "Ravi Kumar",
		Specialization:  "transmission",
		ContactNumber:   "+91-90000-00001",
		ExperienceYears: 12,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := mechanics.UpdateMechanic(ctx, created.ID, MechanicInput{
		Name:            "Ravi Kumar",
		Specialization:  "engine",
		ContactNumber:   "+91-90000-00001",
		ExperienceYears: 13,
	})
	require.NoError(t, err)
	assert.Equal(t, "engine", updated.Specialization)

	all, err := mechanics.ListMechanics(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, mechanics.DeleteMechanic(ctx, created.ID))

	err = mechanics.DeleteMechanic(ctx, created.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	_, err = mechanics.UpdateMechanic(ctx, created.ID, MechanicInput{
		Name: "Ravi", Specialization: "engine", ContactNumber: "123",
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}
