package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"medtransit/internal/access"
	"medtransit/internal/platform/middleware"
	"medtransit/internal/storage/memory"
	"medtransit/internal/trip/models"
	"medtransit/internal/trip/service"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/testutil"
)

const admin = "admin-1"

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(memory.New[domain.TripID, models.Trip](), access.NewAdmins(admin), service.WithLogger(logger))

	r := chi.NewRouter()
	New(svc, logger).Register(r, r.With(middleware.RequireAuth(logger), middleware.RequireLogicalClock))
	s.router = r
}

func (s *HandlerSuite) post(path, principal string, at uint64, body any) *http.Request {
	var req *http.Request
	if body == nil {
		req = testutil.NewRequest(s.T(), http.MethodPost, path)
	} else {
		req = testutil.NewJSONRequest(s.T(), http.MethodPost, path, body)
	}
	return testutil.WithCaller(req, principal, at)
}

func (s *HandlerSuite) requestTrip() {
	body := models.RequestTripRequest{
		TripID:              "t1",
		PatientID:           "p1",
		PickupLocation:      "A",
		Destination:         "B",
		ScheduledTime:       200,
		SpecialRequirements: "wheelchair",
	}
	rr := testutil.DoRequest(s.router, s.post("/trips", "patient-7", 100, body))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
}

func (s *HandlerSuite) TestLifecycle() {
	s.requestTrip()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/trips/t1"))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	trip := testutil.UnmarshalResponse[models.Trip](s.T(), rr)
	s.Equal(models.StatusRequested, trip.Status)
	s.Equal("wheelchair", trip.SpecialRequirements)

	rr = testutil.DoRequest(s.router, s.post("/trips/t1/assign", admin, 110, models.AssignTripRequest{DriverID: "d1", VehicleID: "v1"}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	trip = testutil.UnmarshalResponse[models.Trip](s.T(), rr)
	s.Equal(models.StatusAssigned, trip.Status)
	s.Equal(domain.DriverID("d1"), trip.DriverID)

	rr = testutil.DoRequest(s.router, s.post("/trips/t1/status", admin, 120, models.UpdateStatusRequest{Status: "3"}))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	rr = testutil.DoRequest(s.router, s.post("/trips/t1/cancel", admin, 130, nil))
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	trip = testutil.UnmarshalResponse[models.Trip](s.T(), rr)
	s.Equal(models.StatusCancelled, trip.Status)
	s.Equal(domain.Height(130), trip.UpdatedAt)
}

func (s *HandlerSuite) TestErrorMapping() {
	s.requestTrip()

	s.Run("duplicate request", func() {
		body := models.RequestTripRequest{TripID: "t1", PatientID: "p2"}
		rr := testutil.DoRequest(s.router, s.post("/trips", "patient-7", 101, body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, dErrors.CodeDuplicateID)
	})

	s.Run("non-admin assign", func() {
		rr := testutil.DoRequest(s.router, s.post("/trips/t1/assign", "patient-7", 101, models.AssignTripRequest{DriverID: "d1", VehicleID: "v1"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, dErrors.CodeUnauthorized)
	})

	s.Run("unknown trip", func() {
		rr := testutil.DoRequest(s.router, s.post("/trips/ghost/cancel", admin, 101, nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, dErrors.CodeNotFound)
	})

	s.Run("status out of range", func() {
		rr := testutil.DoRequest(s.router, s.post("/trips/t1/status", admin, 101, models.UpdateStatusRequest{Status: "6"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeInvalidStatusValue)
	})

	s.Run("assign missing vehicle", func() {
		rr := testutil.DoRequest(s.router, s.post("/trips/t1/assign", admin, 101, models.AssignTripRequest{DriverID: "d1"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeInvalidInput)
	})

	s.Run("second assign", func() {
		rr := testutil.DoRequest(s.router, s.post("/trips/t1/assign", admin, 102, models.AssignTripRequest{DriverID: "d1", VehicleID: "v1"}))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		rr = testutil.DoRequest(s.router, s.post("/trips/t1/assign", admin, 103, models.AssignTripRequest{DriverID: "d2", VehicleID: "v2"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, dErrors.CodeInvalidState)
	})
}

// Any JSON number reaches the coordinator, so existence and authorization are
// decided before the status value is looked at.
func (s *HandlerSuite) TestStatusValueCheckedAfterExistenceAndAuthorization() {
	s.requestTrip()

	cases := []struct {
		name      string
		path      string
		principal string
		status    any
		want      int
		code      dErrors.Code
	}{
		{"negative on missing trip", "/trips/ghost/status", admin, -1, http.StatusNotFound, dErrors.CodeNotFound},
		{"negative by non-admin", "/trips/t1/status", "patient-7", -1, http.StatusForbidden, dErrors.CodeUnauthorized},
		{"negative by admin", "/trips/t1/status", admin, -1, http.StatusBadRequest, dErrors.CodeInvalidStatusValue},
		{"fractional by admin", "/trips/t1/status", admin, 2.5, http.StatusBadRequest, dErrors.CodeInvalidStatusValue},
		{"zero by admin", "/trips/t1/status", admin, 0, http.StatusBadRequest, dErrors.CodeInvalidStatusValue},
		{"oversized by admin", "/trips/t1/status", admin, 1e30, http.StatusBadRequest, dErrors.CodeInvalidStatusValue},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			body := map[string]any{"status": tc.status}
			rr := testutil.DoRequest(s.router, s.post(tc.path, tc.principal, 101, body))
			testutil.AssertStatusAndError(s.T(), rr, tc.want, tc.code)
		})
	}

	s.Run("non-numeric body is still malformed", func() {
		body := map[string]any{"status": "in_progress"}
		rr := testutil.DoRequest(s.router, s.post("/trips/t1/status", admin, 101, body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeBadRequest)
	})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/trips/t1"))
	trip := testutil.UnmarshalResponse[models.Trip](s.T(), rr)
	s.Equal(models.StatusRequested, trip.Status)
}

func (s *HandlerSuite) TestPaddedIDsAreRejected() {
	body := models.RequestTripRequest{TripID: " t1", PatientID: "p1"}
	rr := testutil.DoRequest(s.router, s.post("/trips", "patient-7", 100, body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeInvalidInput)

	body = models.RequestTripRequest{TripID: "t1", PatientID: "p1 "}
	rr = testutil.DoRequest(s.router, s.post("/trips", "patient-7", 100, body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeInvalidInput)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/trips/t1"))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *HandlerSuite) TestMutationsRequireAuthAndClock() {
	body := models.RequestTripRequest{TripID: "t9", PatientID: "p1"}

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/trips", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, dErrors.CodeUnauthenticated)

	req := testutil.WithPrincipal(testutil.NewJSONRequest(s.T(), http.MethodPost, "/trips", body), "patient-7")
	rr = testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, dErrors.CodeBadRequest)
}
