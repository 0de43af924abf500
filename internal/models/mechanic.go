package models

type Mechanic struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Specialization  string `json:"specialization"`
	ContactNumber   string `json:"contact_number"`
	ExperienceYears int64  `json:"experience_years"`
}
