package models

import (
	"medtransit/internal/registry"
	"medtransit/pkg/domain"
)

// Patient is a registered transport patient. Owner is the principal who
// registered the record; only they may change it.
type Patient struct {
	ID domain.PatientID `json:"id"`
	registry.Meta
	Profile
}

// Profile holds the descriptive attributes. They are opaque to the coordinator.
type Profile struct {
	MedicalCondition string `json:"medical_condition"`
	EquipmentNeeds   string `json:"equipment_needs"`
	MobilityStatus   string `json:"mobility_status"`
	EmergencyContact string `json:"emergency_contact"`
}
