package models

const (
	// DateLayout формат дат на внешней границе API (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// DefaultDueSoonDays окно "скоро на сервис" по умолчанию
	DefaultDueSoonDays = 30
)

// Метрики рейтинга механиков
const (
	LeaderboardByCount = "count"
	LeaderboardByCost  = "cost"
)
