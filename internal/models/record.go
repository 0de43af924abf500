package models

import (
	"encoding/json"
	"time"
)

// ServiceRecord is one logged maintenance event for a vehicle.
// MechanicID is a weak reference: the mechanic may have been deleted since.
type ServiceRecord struct {
	ID               string     `json:"id"`
	OwnerName        string     `json:"owner_name"`
	OwnerPhoneNumber string     `json:"owner_phone_number"`
	VehicleModel     string     `json:"vehicle_model"`
	VehicleID        string     `json:"vehicle_id"`
	ServiceDate      time.Time  `json:"service_date"`
	ServiceType      string     `json:"service_type"`
	Description      string     `json:"description"`
	Mileage          int64      `json:"mileage"`
	Cost             float64    `json:"cost"`
	NextServiceDate  *time.Time `json:"next_service_date,omitempty"`
	MechanicID       string     `json:"mechanic_id,omitempty"`
}

// recordAlias breaks the MarshalJSON recursion.
type recordAlias ServiceRecord

type recordJSON struct {
	recordAlias
	ServiceDate     string `json:"service_date,omitempty"`
	NextServiceDate string `json:"next_service_date,omitempty"`
}

// MarshalJSON renders dates as YYYY-MM-DD, the format every external
// surface speaks. A zero service date (legacy rows) marshals as absent.
func (r ServiceRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{recordAlias: recordAlias(r)}
	if !r.ServiceDate.IsZero() {
		out.ServiceDate = r.ServiceDate.Format(DateLayout)
	}
	if r.NextServiceDate != nil {
		out.NextServiceDate = r.NextServiceDate.Format(DateLayout)
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the same YYYY-MM-DD form MarshalJSON writes, so a
// serialized record round-trips.
func (r *ServiceRecord) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	*r = ServiceRecord(in.recordAlias)
	if in.ServiceDate != "" {
		t, err := time.Parse(DateLayout, in.ServiceDate)
		if err != nil {
			return err
		}
		r.ServiceDate = t
	}
	if in.NextServiceDate != "" {
		t, err := time.Parse(DateLayout, in.NextServiceDate)
		if err != nil {
			return err
		}
		r.NextServiceDate = &t
	}
	return nil
}
