package models

import (
	"strings"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
)

const maxFieldLength = 1024

// RegisterPatientRequest is the body of POST /patients.
type RegisterPatientRequest struct {
	PatientID string `json:"patient_id"`
	Profile
}

func (r *RegisterPatientRequest) Validate() error {
	if _, err := domain.ParsePatientID(r.PatientID); err != nil {
		return err
	}
	return r.Profile.normalize()
}

// UpdatePatientRequest is the body of PUT /patients/{patientID}.
type UpdatePatientRequest struct {
	Profile
}

func (r *UpdatePatientRequest) Validate() error {
	return r.Profile.normalize()
}

func (p *Profile) normalize() error {
	for _, f := range []*string{&p.MedicalCondition, &p.EquipmentNeeds, &p.MobilityStatus, &p.EmergencyContact} {
		*f = strings.TrimSpace(*f)
		if len(*f) > maxFieldLength {
			return dErrors.New(dErrors.CodeValidation, "patient field exceeds maximum length")
		}
	}
	return nil
}
