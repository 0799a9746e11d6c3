package models

import (
	"medtransit/pkg/domain"
)

// Trip is one patient transport. DriverID and VehicleID stay empty until the
// trip is assigned; assignment always sets both.
type Trip struct {
	ID                  domain.TripID    `json:"id"`
	PatientID           domain.PatientID `json:"patient_id"`
	DriverID            domain.DriverID  `json:"driver_id,omitempty"`
	VehicleID           domain.VehicleID `json:"vehicle_id,omitempty"`
	PickupLocation      string           `json:"pickup_location"`
	Destination         string           `json:"destination"`
	ScheduledTime       domain.Height    `json:"scheduled_time"`
	Status              Status           `json:"status"`
	SpecialRequirements string           `json:"special_requirements"`
	CreatedAt           domain.Height    `json:"created_at"`
	UpdatedAt           domain.Height    `json:"updated_at"`
}

// IsAssigned reports whether a driver and vehicle have been attached.
func (t Trip) IsAssigned() bool {
	return !t.DriverID.IsNil() && !t.VehicleID.IsNil()
}

func (t *Trip) touch(now domain.Height) {
	t.UpdatedAt = t.UpdatedAt.Later(now)
}

// Assign attaches the driver and vehicle and moves the trip to StatusAssigned.
// The caller has already checked the trip is StatusRequested.
func (t *Trip) Assign(driver domain.DriverID, vehicle domain.VehicleID, now domain.Height) {
	t.DriverID = driver
	t.VehicleID = vehicle
	t.Status = StatusAssigned
	t.touch(now)
}

func (t *Trip) SetStatus(s Status, now domain.Height) {
	t.Status = s
	t.touch(now)
}
