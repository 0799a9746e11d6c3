package domain

import (
	"strings"
	"unicode"

	dErrors "medtransit/pkg/domain-errors"
)

// maxIDLength bounds caller-supplied identifiers at the trust boundary.
const maxIDLength = 128

// Typed identifiers. Ids are opaque caller-supplied tokens; the types keep a driver
// id from being passed where a vehicle id is expected.
type (
	TripID    string
	PatientID string
	DriverID  string
	VehicleID string
)

func (id TripID) String() string    { return string(id) }
func (id PatientID) String() string { return string(id) }
func (id DriverID) String() string  { return string(id) }
func (id VehicleID) String() string { return string(id) }

func (id TripID) IsNil() bool    { return id == "" }
func (id PatientID) IsNil() bool { return id == "" }
func (id DriverID) IsNil() bool  { return id == "" }
func (id VehicleID) IsNil() bool { return id == "" }

func ParseTripID(s string) (TripID, error) {
	v, err := parseID("trip id", s)
	return TripID(v), err
}

func ParsePatientID(s string) (PatientID, error) {
	v, err := parseID("patient id", s)
	return PatientID(v), err
}

func ParseDriverID(s string) (DriverID, error) {
	v, err := parseID("driver id", s)
	return DriverID(v), err
}

func ParseVehicleID(s string) (VehicleID, error) {
	v, err := parseID("vehicle id", s)
	return VehicleID(v), err
}

// parseID rejects empty, oversized and non-printable identifiers. Ids are taken
// verbatim: surrounding whitespace is an error, not something to trim away.
func parseID(label, s string) (string, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if strings.TrimSpace(s) != s {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" must not have leading or trailing whitespace")
	}
	if len(s) > maxIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, label+" is too long")
	}
	for _, r := range s {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) || r == '/' {
			return "", dErrors.New(dErrors.CodeInvalidInput, label+" contains invalid characters")
		}
	}
	return s, nil
}
