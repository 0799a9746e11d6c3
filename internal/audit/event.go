// Package audit keeps the append-only trail of successful mutations and relays
// it to an external sink.
package audit

import (
	"medtransit/pkg/domain"
)

// Kind names the entity an event is about.
type Kind string

const (
	KindTrip    Kind = "trip"
	KindDriver  Kind = "driver"
	KindVehicle Kind = "vehicle"
	KindPatient Kind = "patient"
)

// Action is what happened to the subject.
type Action string

const (
	ActionTripRequested     Action = "trip_requested"
	ActionTripAssigned      Action = "trip_assigned"
	ActionTripStatusUpdated Action = "trip_status_updated"
	ActionTripCancelled     Action = "trip_cancelled"

	ActionDriverRegistered           Action = "driver_registered"
	ActionDriverCertificationUpdated Action = "driver_certifications_updated"
	ActionDriverDeactivated          Action = "driver_deactivated"

	ActionVehicleRegistered       Action = "vehicle_registered"
	ActionVehicleEquipmentUpdated Action = "vehicle_equipment_updated"
	ActionVehicleInspected        Action = "vehicle_inspection_recorded"
	ActionVehicleDeactivated      Action = "vehicle_deactivated"

	ActionPatientRegistered  Action = "patient_registered"
	ActionPatientUpdated     Action = "patient_updated"
	ActionPatientDeactivated Action = "patient_deactivated"
)

// Event records one successful mutation. Events are immutable once emitted.
type Event struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Subject   string            `json:"subject"`
	Action    Action            `json:"action"`
	Actor     domain.Principal  `json:"actor"`
	Height    domain.Height     `json:"height"`
	RequestID string            `json:"request_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
}
