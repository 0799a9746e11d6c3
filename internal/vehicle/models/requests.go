package models

import (
	"strings"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	pkgstrings "medtransit/pkg/platform/strings"
)

const maxEquipment = 64

// RegisterVehicleRequest is the body of POST /vehicles.
type RegisterVehicleRequest struct {
	VehicleID           string   `json:"vehicle_id"`
	VehicleType         string   `json:"vehicle_type"`
	Equipment           []string `json:"equipment"`
	CertificationExpiry uint64   `json:"certification_expiry"`
}

func (r *RegisterVehicleRequest) Validate() error {
	r.VehicleType = strings.TrimSpace(r.VehicleType)
	if _, err := domain.ParseVehicleID(r.VehicleID); err != nil {
		return err
	}
	if r.VehicleType == "" {
		return dErrors.New(dErrors.CodeValidation, "vehicle_type is required")
	}
	equipment, err := normalizeEquipment(r.Equipment)
	if err != nil {
		return err
	}
	r.Equipment = equipment
	return nil
}

// UpdateEquipmentRequest is the body of PUT /vehicles/{vehicleID}/equipment.
type UpdateEquipmentRequest struct {
	Equipment []string `json:"equipment"`
}

func (r *UpdateEquipmentRequest) Validate() error {
	equipment, err := normalizeEquipment(r.Equipment)
	if err != nil {
		return err
	}
	r.Equipment = equipment
	return nil
}

// RecordInspectionRequest is the body of POST /vehicles/{vehicleID}/inspections.
type RecordInspectionRequest struct {
	CertificationExpiry uint64 `json:"certification_expiry"`
}

func (r *RecordInspectionRequest) Validate() error { return nil }

func normalizeEquipment(in []string) ([]string, error) {
	out, ok := pkgstrings.BoundedList(in, maxEquipment)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "too many equipment items")
	}
	return out, nil
}

// ValidityResponse answers GET /vehicles/{vehicleID}/validity.
type ValidityResponse struct {
	VehicleID string `json:"vehicle_id"`
	Valid     bool   `json:"valid"`
	At        uint64 `json:"at"`
}
