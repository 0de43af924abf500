package analytics

import (
	"context"
	"testing"
	"time"

	"garagelog/internal/database"
	"garagelog/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testToday = time.Date(2026, 8, 20, 15, 30, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	engine := NewEngine(db, &logger).WithNow(func() time.Time { return testToday })
	return engine, db
}

func insertRecord(t *testing.T, db *database.DB, rec models.ServiceRecord) {
	t.Helper()
	require.NoError(t, db.InsertRecord(context.Background(), &rec))
}

func nextIn(days int) *time.Time {
	d := testToday.AddDate(0, 0, days)
	return &d
}

func seedHistory(t *testing.T, db *database.DB) {
	// Creta due in 10 days, Swift overdue by 5, City has no schedule.
	insertRecord(t, db, models.ServiceRecord{
		ID: "r1", OwnerName: "Asha Rao", VehicleModel: "Hyundai Creta", VehicleID: "hyundai_creta_1001",
		ServiceDate: testToday.AddDate(0, 0, -170), ServiceType: "oil change",
		Mileage: 42000, Cost: 3500, NextServiceDate: nextIn(10), MechanicID: "m1",
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "r2", OwnerName: "Vikram Shah", VehicleModel: "Maruti Swift", VehicleID: "maruti_swift_2002",
		ServiceDate: testToday.AddDate(0, 0, -185), ServiceType: "brake inspection",
		Mileage: 61000, Cost: 1800, NextServiceDate: nextIn(-5), MechanicID: "m2",
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "r3", OwnerName: "Asha Rao", VehicleModel: "Honda City", VehicleID: "honda_city_3003",
		ServiceDate: testToday.AddDate(0, 0, -2), ServiceType: "oil change",
		Mileage: 30500, Cost: 4200, MechanicID: "m1",
	})
}

func TestDueSoon_WindowBoundaries(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	insertRecord(t, db, models.ServiceRecord{
		ID: "today", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(0),
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "yesterday", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(-1),
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "edge", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(30),
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "beyond", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(31),
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "unscheduled", ServiceType: "t", ServiceDate: testToday,
	})

	res, err := engine.DueSoon(ctx, 30)
	require.NoError(t, err)

	assert.Equal(t, 30, res.Days)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "today", res.Items[0].Record.ID)
	assert.Equal(t, 0, res.Items[0].DaysUntil)
	assert.Equal(t, "edge", res.Items[1].Record.ID)
	assert.Equal(t, 30, res.Items[1].DaysUntil)
}

func TestDueSoon_ZeroDayWindow(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	insertRecord(t, db, models.ServiceRecord{
		ID: "today", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(0),
	})
	insertRecord(t, db, models.ServiceRecord{
		ID: "ten-days-out", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(10),
	})

	// Zero is a real window containing only today.
	res, err := engine.DueSoon(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Days)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "today", res.Items[0].Record.ID)

	// Negative means no window was given and the default applies.
	res, err = engine.DueSoon(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDueSoonDays, res.Days)
	assert.Len(t, res.Items, 2)
}

func TestDueSoonAndOverdue_AreExclusive(t *testing.T) {
	engine, db := setupEngine(t)
	seedHistory(t, db)
	ctx := context.Background()

	due, err := engine.DueSoon(ctx, 30)
	require.NoError(t, err)
	require.Len(t, due.Items, 1)
	assert.Equal(t, "r1", due.Items[0].Record.ID)
	assert.Equal(t, 10, due.Items[0].DaysUntil)

	overdue, err := engine.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue.Items, 1)
	assert.Equal(t, "r2", overdue.Items[0].ID)
}

func TestOverdue_SortedMostOverdueFirst(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	insertRecord(t, db, models.ServiceRecord{ID: "a", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(-3)})
	insertRecord(t, db, models.ServiceRecord{ID: "b", ServiceType: "t", ServiceDate: testToday, NextServiceDate: nextIn(-40)})

	res, err := engine.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "b", res.Items[0].ID)
	assert.Equal(t, "a", res.Items[1].ID)
}

func TestTotals(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	empty, err := engine.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count)
	assert.Zero(t, empty.TotalCost)
	assert.Zero(t, empty.AverageCost)

	seedHistory(t, db)

	res, err := engine.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.InDelta(t, 9500, res.TotalCost, 0.001)
	assert.InDelta(t, 9500.0/3, res.AverageCost, 0.001)
}

func TestMostFrequentServiceType(t *testing.T) {
	engine, db := setupEngine(t)
	seedHistory(t, db)

	res, err := engine.MostFrequentServiceType(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "oil change", res.Top)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, map[string]int{"oil change": 2, "brake inspection": 1}, res.Breakdown)
}

func TestMostFrequent_TieBreaksLexicographically(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	insertRecord(t, db, models.ServiceRecord{ID: "1", OwnerName: "Zoya", ServiceType: "t", ServiceDate: testToday})
	insertRecord(t, db, models.ServiceRecord{ID: "2", OwnerName: "Amit", ServiceType: "t", ServiceDate: testToday})

	res, err := engine.MostFrequentOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Amit", res.Top)
	assert.Equal(t, 1, res.Count)
}

func TestMostFrequent_EmptyStore(t *testing.T) {
	engine, _ := setupEngine(t)

	res, err := engine.MostFrequentOwner(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Top)
	assert.Zero(t, res.Count)
}

func TestMechanicLeaderboard(t *testing.T) {
	engine, db := setupEngine(t)
	seedHistory(t, db)
	ctx := context.Background()

	require.NoError(t, db.CreateMechanic(ctx, &models.Mechanic{
		ID: "m1", Name: "Ravi Kumar", Specialization: "engine", ContactNumber: "1", ExperienceYears: 12,
	}))

	byCount, err := engine.MechanicLeaderboard(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.LeaderboardByCount, byCount.Metric)
	require.Len(t, byCount.Entries, 2)

	assert.Equal(t, "m1", byCount.Entries[0].MechanicID)
	assert.Equal(t, "Ravi Kumar", byCount.Entries[0].Name)
	assert.Equal(t, 2, byCount.Entries[0].Jobs)
	assert.InDelta(t, 7700, byCount.Entries[0].TotalCost, 0.001)
	assert.InDelta(t, 3850, byCount.Entries[0].AverageCost, 0.001)

	// m2 is not on the roster anymore; the record keeps a dangling reference.
	assert.Equal(t, "Mechanic m2", byCount.Entries[1].Name)

	byCost, err := engine.MechanicLeaderboard(ctx, models.LeaderboardByCost)
	require.NoError(t, err)
	assert.Equal(t, "m1", byCost.Entries[0].MechanicID)

	_, err = engine.MechanicLeaderboard(ctx, "revenue")
	assert.Error(t, err)
}

func TestAnalytics_ToleratesLegacyDates(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	insertRecord(t, db, models.ServiceRecord{
		ID: "healthy", ServiceType: "oil change", ServiceDate: testToday.AddDate(0, 0, -2),
		NextServiceDate: nextIn(10), Cost: 3500,
	})
	// Rows written by the previous system carry offset-less isoformat dates,
	// and hand-edited ones can carry junk.
	_, err := db.Exec(
		`INSERT INTO service_records (id, service_type, service_date, next_service_date, cost)
		 VALUES (?, ?, ?, ?, ?)`,
		"legacy", "brake inspection", "2026-08-01T10:30:00", "2026-08-25T10:30:00", 1800)
	require.NoError(t, err)
	_, err = db.Exec(
		`INSERT INTO service_records (id, service_type, service_date, cost)
		 VALUES (?, ?, ?, ?)`,
		"junk", "tyre rotation", "sometime soon", 900)
	require.NoError(t, err)

	due, err := engine.DueSoon(ctx, 30)
	require.NoError(t, err)
	require.Len(t, due.Items, 2)
	assert.Equal(t, "legacy", due.Items[0].Record.ID)
	assert.Equal(t, 5, due.Items[0].DaysUntil)
	assert.Equal(t, "healthy", due.Items[1].Record.ID)

	totals, err := engine.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, totals.Count)

	recent, err := engine.MostRecentService(ctx)
	require.NoError(t, err)
	require.NotNil(t, recent.Record)
	assert.Equal(t, "healthy", recent.Record.ID)
}

func TestMostRecentService_OnlyDatelessRecords(t *testing.T) {
	engine, db := setupEngine(t)

	_, err := db.Exec(
		`INSERT INTO service_records (id, service_type, service_date, cost) VALUES (?, ?, ?, ?)`,
		"junk", "oil change", "not a date", 100)
	require.NoError(t, err)

	res, err := engine.MostRecentService(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Record)
	assert.Equal(t, "no service records", res.Message)
}

func TestMostRecentService(t *testing.T) {
	engine, db := setupEngine(t)
	ctx := context.Background()

	empty, err := engine.MostRecentService(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty.Record)
	assert.Equal(t, "no service records", empty.Message)

	seedHistory(t, db)

	res, err := engine.MostRecentService(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, "r3", res.Record.ID)
}
