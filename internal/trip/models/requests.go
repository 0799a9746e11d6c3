package models

import (
	"encoding/json"
	"strconv"
	"strings"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
)

const maxTextLength = 1024

// RequestTripRequest is the body of POST /trips.
type RequestTripRequest struct {
	TripID              string `json:"trip_id"`
	PatientID           string `json:"patient_id"`
	PickupLocation      string `json:"pickup_location"`
	Destination         string `json:"destination"`
	ScheduledTime       uint64 `json:"scheduled_time"`
	SpecialRequirements string `json:"special_requirements"`
}

func (r *RequestTripRequest) Validate() error {
	r.PickupLocation = strings.TrimSpace(r.PickupLocation)
	r.Destination = strings.TrimSpace(r.Destination)
	r.SpecialRequirements = strings.TrimSpace(r.SpecialRequirements)

	if _, err := domain.ParseTripID(r.TripID); err != nil {
		return err
	}
	if _, err := domain.ParsePatientID(r.PatientID); err != nil {
		return err
	}
	for _, f := range []string{r.PickupLocation, r.Destination, r.SpecialRequirements} {
		if len(f) > maxTextLength {
			return dErrors.New(dErrors.CodeValidation, "trip field exceeds maximum length")
		}
	}
	return nil
}

// AssignTripRequest is the body of POST /trips/{tripID}/assign.
type AssignTripRequest struct {
	DriverID  string `json:"driver_id"`
	VehicleID string `json:"vehicle_id"`
}

func (r *AssignTripRequest) Validate() error {
	driver, err := domain.ParseDriverID(r.DriverID)
	if err != nil {
		return err
	}
	vehicle, err := domain.ParseVehicleID(r.VehicleID)
	if err != nil {
		return err
	}
	r.DriverID, r.VehicleID = driver.String(), vehicle.String()
	return nil
}

// UpdateStatusRequest is the body of POST /trips/{tripID}/status. Any JSON number
// decodes; the range check happens in the coordinator, after existence and
// authorization, so -1 on a missing trip is still not_found.
type UpdateStatusRequest struct {
	Status json.Number `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	return nil
}

// StatusValue maps the raw number onto a Status. Negative, fractional and
// oversized values become the zero Status, which is never valid.
func (r *UpdateStatusRequest) StatusValue() Status {
	v, err := strconv.ParseUint(r.Status.String(), 10, 64)
	if err != nil {
		return 0
	}
	return Status(v)
}
