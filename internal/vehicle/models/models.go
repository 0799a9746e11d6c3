package models

import (
	"slices"

	"medtransit/internal/registry"
	"medtransit/pkg/domain"
)

// Vehicle is a verified transport vehicle. Owner is the admin who registered it.
type Vehicle struct {
	ID domain.VehicleID `json:"id"`
	registry.Meta
	VehicleType         string        `json:"vehicle_type"`
	Equipment           []string      `json:"equipment"`
	LastInspectionDate  domain.Height `json:"last_inspection_date"`
	CertificationExpiry domain.Height `json:"certification_expiry"`
}

func (v Vehicle) Clone() Vehicle {
	v.Equipment = slices.Clone(v.Equipment)
	return v
}

// IsCertificationValid reports whether the vehicle may be assigned at now.
func (v Vehicle) IsCertificationValid(now domain.Height) bool {
	return registry.CertificationValid(v.Meta, v.CertificationExpiry, now)
}

func (v Vehicle) HasEquipment(item string) bool {
	return slices.Contains(v.Equipment, item)
}
