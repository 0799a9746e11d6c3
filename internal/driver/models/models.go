package models

import (
	"slices"

	"medtransit/internal/registry"
	"medtransit/pkg/domain"
)

// Driver is a certified transport driver. Owner is the admin who registered them.
type Driver struct {
	ID domain.DriverID `json:"id"`
	registry.Meta
	Name                string        `json:"name"`
	Certifications      []string      `json:"certifications"`
	TrainingCompletion  domain.Height `json:"training_completion"`
	CertificationExpiry domain.Height `json:"certification_expiry"`
}

func (d Driver) Clone() Driver {
	d.Certifications = slices.Clone(d.Certifications)
	return d
}

// IsCertificationValid reports whether the driver may be assigned at now.
func (d Driver) IsCertificationValid(now domain.Height) bool {
	return registry.CertificationValid(d.Meta, d.CertificationExpiry, now)
}

// HasCertification reports whether name is among the driver's certifications.
func (d Driver) HasCertification(name string) bool {
	return slices.Contains(d.Certifications, name)
}
