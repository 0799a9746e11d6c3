package models

import (
	"strings"

	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	pkgstrings "medtransit/pkg/platform/strings"
)

const maxCertifications = 64

// RegisterDriverRequest is the body of POST /drivers.
type RegisterDriverRequest struct {
	DriverID            string   `json:"driver_id"`
	Name                string   `json:"name"`
	Certifications      []string `json:"certifications"`
	CertificationExpiry uint64   `json:"certification_expiry"`
}

func (r *RegisterDriverRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if _, err := domain.ParseDriverID(r.DriverID); err != nil {
		return err
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	certs, err := normalizeCertifications(r.Certifications)
	if err != nil {
		return err
	}
	r.Certifications = certs
	return nil
}

// UpdateCertificationsRequest is the body of PUT /drivers/{driverID}/certifications.
type UpdateCertificationsRequest struct {
	Certifications      []string `json:"certifications"`
	CertificationExpiry uint64   `json:"certification_expiry"`
}

func (r *UpdateCertificationsRequest) Validate() error {
	certs, err := normalizeCertifications(r.Certifications)
	if err != nil {
		return err
	}
	r.Certifications = certs
	return nil
}

func normalizeCertifications(in []string) ([]string, error) {
	out, ok := pkgstrings.BoundedList(in, maxCertifications)
	if !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "too many certifications")
	}
	return out, nil
}

// ValidityResponse answers GET /drivers/{driverID}/validity.
type ValidityResponse struct {
	DriverID string `json:"driver_id"`
	Valid    bool   `json:"valid"`
	At       uint64 `json:"at"`
}
