package analytics

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"garagelog/internal/database"
	"garagelog/internal/domain"
	"garagelog/internal/models"

	"github.com/rs/zerolog"
)

// Engine answers analytical queries over the service history. Every query
// works on a fresh full snapshot of the records; nothing is cached between
// calls, so results always reflect the store at query time.
type Engine struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewEngine(repo domain.Repository, logger *zerolog.Logger) *Engine {
	return &Engine{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock. Tests use it to pin "today".
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// DueSoonItem is a service record annotated with how many calendar days
// remain until its next scheduled service.
type DueSoonItem struct {
	Record    models.ServiceRecord `json:"record"`
	DaysUntil int                  `json:"days_until"`
}

// DueSoonResult lists upcoming services inside the window, nearest first.
type DueSoonResult struct {
	Days    int           `json:"days"`
	Items   []DueSoonItem `json:"items"`
	Message string        `json:"message"`
}

// DueSoon returns records whose next service falls between today and
// today+days inclusive. Records due today count as due soon; records one
// day in the past do not. Records with no next service date are skipped.
// A zero window is a real window containing only today; negative days
// means the caller gave no window and the default applies.
func (e *Engine) DueSoon(ctx context.Context, days int) (*DueSoonResult, error) {
	if days < 0 {
		days = models.DefaultDueSoonDays
	}

	records, err := e.repo.ListRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("due soon: %w", err)
	}

	today := truncateToDay(e.now())
	var items []DueSoonItem
	for _, rec := range records {
		if rec.NextServiceDate == nil {
			continue
		}
		until := daysBetween(today, truncateToDay(*rec.NextServiceDate))
		if until < 0 || until > days {
			continue
		}
		items = append(items, DueSoonItem{Record: rec, DaysUntil: until})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DaysUntil < items[j].DaysUntil
	})

	msg := fmt.Sprintf("%d vehicle(s) due for service within %d days", len(items), days)
	if len(items) == 0 {
		msg = fmt.Sprintf("no vehicles due for service within %d days", days)
	}
	return &DueSoonResult{Days: days, Items: items, Message: msg}, nil
}

// OverdueResult lists records whose next service date has already passed,
// most overdue first.
type OverdueResult struct {
	Items   []models.ServiceRecord `json:"items"`
	Message string                 `json:"message"`
}

// Overdue returns records whose next service date is strictly before today.
// A record due today is not overdue yet.
func (e *Engine) Overdue(ctx context.Context) (*OverdueResult, error) {
	records, err := e.repo.ListRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("overdue: %w", err)
	}

	today := truncateToDay(e.now())
	var items []models.ServiceRecord
	for _, rec := range records {
		if rec.NextServiceDate == nil {
			continue
		}
		if truncateToDay(*rec.NextServiceDate).Before(today) {
			items = append(items, rec)
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].NextServiceDate.Before(*items[j].NextServiceDate)
	})

	msg := fmt.Sprintf("%d vehicle(s) overdue for service", len(items))
	if len(items) == 0 {
		msg = "no vehicles overdue for service"
	}
	return &OverdueResult{Items: items, Message: msg}, nil
}

// TotalsResult aggregates the whole history. An empty store yields zeros.
type TotalsResult struct {
	Count       int     `json:"count"`
	TotalCost   float64 `json:"total_cost"`
	AverageCost float64 `json:"average_cost"`
	Message     string  `json:"message"`
}

func (e *Engine) Totals(ctx context.Context) (*TotalsResult, error) {
	records, err := e.repo.ListRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("totals: %w", err)
	}

	res := &TotalsResult{Count: len(records)}
	for _, rec := range records {
		res.TotalCost += rec.Cost
	}
	if res.Count > 0 {
		res.AverageCost = res.TotalCost / float64(res.Count)
	}
	res.Message = fmt.Sprintf("%d service record(s), total cost %.2f", res.Count, res.TotalCost)
	return res, nil
}

// FrequencyResult names the most common value of some record field along
// with the full breakdown behind the pick.
type FrequencyResult struct {
	Top       string         `json:"top"`
	Count     int            `json:"count"`
	Breakdown map[string]int `json:"breakdown"`
	Message   string         `json:"message"`
}

// MostFrequentServiceType returns the service type with the most records.
// Ties resolve to the lexicographically smaller type so repeated calls on
// the same data agree.
func (e *Engine) MostFrequentServiceType(ctx context.Context) (*FrequencyResult, error) {
	return e.mostFrequent(ctx, "service type", func(rec *models.ServiceRecord) string {
		return rec.ServiceType
	})
}

// MostFrequentOwner returns the owner with the most service records, with
// the same deterministic tie-break as service types.
func (e *Engine) MostFrequentOwner(ctx context.Context) (*FrequencyResult, error) {
	return e.mostFrequent(ctx, "owner", func(rec *models.ServiceRecord) string {
		return rec.OwnerName
	})
}

func (e *Engine) mostFrequent(ctx context.Context, what string, key func(*models.ServiceRecord) string) (*FrequencyResult, error) {
	records, err := e.repo.ListRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("most frequent %s: %w", what, err)
	}

	breakdown := make(map[string]int)
	for i := range records {
		k := key(&records[i])
		if k == "" {
			continue
		}
		breakdown[k]++
	}

	if len(breakdown) == 0 {
		return &FrequencyResult{
			Breakdown: breakdown,
			Message:   fmt.Sprintf("no records with a %s", what),
		}, nil
	}

	var top string
	var topCount int
	for k, n := range breakdown {
		if n > topCount || (n == topCount && k < top) {
			top, topCount = k, n
		}
	}

	return &FrequencyResult{
		Top:       top,
		Count:     topCount,
		Breakdown: breakdown,
		Message:   fmt.Sprintf("most frequent %s: %q (%d record(s))", what, top, topCount),
	}, nil
}

// LeaderboardEntry is one mechanic's standing: job count, money earned and
// the average ticket.
type LeaderboardEntry struct {
	MechanicID  string  `json:"mechanic_id"`
	Name        string  `json:"name"`
	Jobs        int     `json:"jobs"`
	TotalCost   float64 `json:"total_cost"`
	AverageCost float64 `json:"average_cost"`
}

// LeaderboardResult ranks mechanics by the requested metric.
type LeaderboardResult struct {
	Metric  string             `json:"metric"`
	Entries []LeaderboardEntry `json:"entries"`
	Message string             `json:"message"`
}

// MechanicLeaderboard groups records by mechanic and ranks them by job
// count or total cost. Records without a mechanic are excluded. Names come
// from the roster when the id still resolves; a record may outlive its
// mechanic, in which case the entry keeps a placeholder label.
func (e *Engine) MechanicLeaderboard(ctx context.Context, metric string) (*LeaderboardResult, error) {
	switch metric {
	case "":
		metric = models.LeaderboardByCount
	case models.LeaderboardByCount, models.LeaderboardByCost:
	default:
		return nil, fmt.Errorf("leaderboard: unknown metric %q", metric)
	}

	records, err := e.repo.ListRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	groups := make(map[string]*LeaderboardEntry)
	for _, rec := range records {
		if rec.MechanicID == "" {
			continue
		}
		entry, ok := groups[rec.MechanicID]
		if !ok {
			entry = &LeaderboardEntry{MechanicID: rec.MechanicID}
			groups[rec.MechanicID] = entry
		}
		entry.Jobs++
		entry.TotalCost += rec.Cost
	}

	entries := make([]LeaderboardEntry, 0, len(groups))
	for id, entry := range groups {
		entry.AverageCost = entry.TotalCost / float64(entry.Jobs)
		entry.Name = e.resolveMechanicName(ctx, id)
		entries = append(entries, *entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if metric == models.LeaderboardByCost {
			if a.TotalCost != b.TotalCost {
				return a.TotalCost > b.TotalCost
			}
		} else if a.Jobs != b.Jobs {
			return a.Jobs > b.Jobs
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.MechanicID < b.MechanicID
	})

	msg := fmt.Sprintf("%d mechanic(s) ranked by %s", len(entries), metric)
	if len(entries) == 0 {
		msg = "no records with an assigned mechanic"
	}
	return &LeaderboardResult{Metric: metric, Entries: entries, Message: msg}, nil
}

func (e *Engine) resolveMechanicName(ctx context.Context, id string) string {
	m, err := e.repo.GetMechanic(ctx, id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			e.logger.Warn().Err(err).Str("mechanic_id", id).Msg("failed to resolve mechanic name")
		}
		return fmt.Sprintf("Mechanic %s", id)
	}
	return m.Name
}

// MostRecentResult carries the latest service visit, if any.
type MostRecentResult struct {
	Record  *models.ServiceRecord `json:"record,omitempty"`
	Message string                `json:"message"`
}

// MostRecentService returns the record with the latest service date.
// Records whose date never parsed carry a zero date and do not compete;
// when no record has a date the result is empty.
func (e *Engine) MostRecentService(ctx context.Context) (*MostRecentResult, error) {
	records, err := e.repo.ListRecords(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("most recent service: %w", err)
	}

	var latest *models.ServiceRecord
	for i := range records {
		rec := records[i]
		if rec.ServiceDate.IsZero() {
			continue
		}
		if latest == nil || rec.ServiceDate.After(latest.ServiceDate) {
			latest = &rec
		}
	}
	if latest == nil {
		return &MostRecentResult{Message: "no service records"}, nil
	}

	return &MostRecentResult{
		Record:  latest,
		Message: fmt.Sprintf("most recent service on %s", latest.ServiceDate.Format(models.DateLayout)),
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b; both truncated.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
