package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks AdminChecker,DriverValidator,VehicleValidator,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"medtransit/internal/access"
	"medtransit/internal/audit"
	driverModels "medtransit/internal/driver/models"
	driverService "medtransit/internal/driver/service"
	"medtransit/internal/storage/memory"
	"medtransit/internal/trip/metrics"
	"medtransit/internal/trip/models"
	"medtransit/internal/trip/service/mocks"
	vehicleModels "medtransit/internal/vehicle/models"
	vehicleService "medtransit/internal/vehicle/service"
	"medtransit/pkg/domain"
	dErrors "medtransit/pkg/domain-errors"
	"medtransit/pkg/testutil"
)

const (
	admin    = "admin-1"
	stranger = "someone"
	height   = 100
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type TripServiceSuite struct {
	suite.Suite
	store   *memory.Store[domain.TripID, models.Trip]
	trail   *audit.InMemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestTripServiceSuite(t *testing.T) {
	suite.Run(t, new(TripServiceSuite))
}

func (s *TripServiceSuite) SetupTest() {
	s.store = memory.New[domain.TripID, models.Trip]()
	s.trail = audit.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, access.NewAdmins(admin),
		WithLogger(discardLogger()),
		WithAuditPublisher(audit.NewPublisher(s.trail)),
		WithMetrics(s.metrics),
	)
}

func (s *TripServiceSuite) as(principal string, h uint64) context.Context {
	return testutil.AsCaller(context.Background(), principal, h)
}

func (s *TripServiceSuite) request(id string) *models.Trip {
	trip, err := s.service.RequestTrip(s.as("patient-7", height), RequestCommand{
		TripID:              domain.TripID(id),
		PatientID:           "p1",
		PickupLocation:      "A",
		Destination:         "B",
		ScheduledTime:       200,
		SpecialRequirements: "wheelchair",
	})
	s.Require().NoError(err)
	return trip
}

func (s *TripServiceSuite) TestRequestTrip() {
	trip := s.request("t1")

	s.Equal(models.StatusRequested, trip.Status)
	s.False(trip.IsAssigned())
	s.Empty(trip.DriverID)
	s.Empty(trip.VehicleID)
	s.Equal(domain.Height(height), trip.CreatedAt)
	s.Equal(domain.Height(height), trip.UpdatedAt)
	s.Equal(domain.Height(200), trip.ScheduledTime)
}

func (s *TripServiceSuite) TestRequestTripDuplicate() {
	s.request("t1")

	_, err := s.service.RequestTrip(s.as(admin, height+5), RequestCommand{
		TripID:      "t1",
		PatientID:   "p2",
		Destination: "elsewhere",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateID))

	original, err := s.service.GetTripInfo(context.Background(), "t1")
	s.Require().NoError(err)
	s.Equal(domain.PatientID("p1"), original.PatientID, "original is unchanged")
	s.Equal("B", original.Destination)
}

func (s *TripServiceSuite) TestAssignTrip() {
	s.request("t1")

	trip, err := s.service.AssignTrip(s.as(admin, height+10), "t1", "d1", "v1")
	s.Require().NoError(err)
	s.Equal(models.StatusAssigned, trip.Status)
	s.Equal(domain.DriverID("d1"), trip.DriverID)
	s.Equal(domain.VehicleID("v1"), trip.VehicleID)
	s.Equal(domain.Height(height+10), trip.UpdatedAt)

	_, err = s.service.AssignTrip(s.as(admin, height+11), "t1", "d2", "v2")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

	got, _ := s.service.GetTripInfo(context.Background(), "t1")
	s.Equal(domain.DriverID("d1"), got.DriverID, "failed assignment leaves the trip unchanged")
}

func (s *TripServiceSuite) TestAssignTripCheckOrder() {
	_, err := s.service.AssignTrip(s.as(stranger, height), "ghost", "d1", "v1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "not found comes before authorization")

	s.request("t1")
	_, err = s.service.UpdateTripStatus(s.as(admin, height), "t1", models.StatusCompleted)
	s.Require().NoError(err)

	_, err = s.service.AssignTrip(s.as(stranger, height), "t1", "d1", "v1")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized), "authorization comes before state")

	_, err = s.service.AssignTrip(s.as(admin, height), "t1", "d1", "v1")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *TripServiceSuite) TestUpdateTripStatus() {
	s.request("t1")

	s.Run("any in-range value is accepted", func() {
		trip, err := s.service.UpdateTripStatus(s.as(admin, height+1), "t1", models.StatusCompleted)
		s.Require().NoError(err)
		s.Equal(models.StatusCompleted, trip.Status)

		trip, err = s.service.UpdateTripStatus(s.as(admin, height+2), "t1", models.StatusRequested)
		s.Require().NoError(err)
		s.Equal(models.StatusRequested, trip.Status)
	})

	s.Run("check order", func() {
		_, err := s.service.UpdateTripStatus(s.as(stranger, height), "ghost", 9)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.UpdateTripStatus(s.as(stranger, height), "t1", 9)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		_, err = s.service.UpdateTripStatus(s.as(admin, height), "t1", 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusValue))
		_, err = s.service.UpdateTripStatus(s.as(admin, height), "t1", 6)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStatusValue))
	})

	s.Run("stale clock does not move updatedAt back", func() {
		trip, err := s.service.UpdateTripStatus(s.as(admin, height-50), "t1", models.StatusAssigned)
		s.Require().NoError(err)
		s.Equal(domain.Height(height+2), trip.UpdatedAt)
	})
}

func (s *TripServiceSuite) TestCancelTrip() {
	for _, tc := range []struct {
		name    string
		status  models.Status
		wantErr dErrors.Code
	}{
		{name: "requested", status: models.StatusRequested},
		{name: "assigned", status: models.StatusAssigned},
		{name: "in progress", status: models.StatusInProgress},
		{name: "completed", status: models.StatusCompleted, wantErr: dErrors.CodeInvalidState},
		{name: "cancelled", status: models.StatusCancelled, wantErr: dErrors.CodeInvalidState},
	} {
		s.Run(tc.name, func() {
			s.store.Reset()
			s.request("t1")
			if tc.status != models.StatusRequested {
				_, err := s.service.UpdateTripStatus(s.as(admin, height), "t1", tc.status)
				s.Require().NoError(err)
			}

			trip, err := s.service.CancelTrip(s.as(admin, height+1), "t1")
			if tc.wantErr != "" {
				s.True(dErrors.HasCode(err, tc.wantErr))
				got, _ := s.service.GetTripInfo(context.Background(), "t1")
				s.Equal(tc.status, got.Status, "rejected cancel leaves status unchanged")
				return
			}
			s.Require().NoError(err)
			s.Equal(models.StatusCancelled, trip.Status)
		})
	}

	_, err := s.service.CancelTrip(s.as(stranger, height), "t1")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	_, err = s.service.CancelTrip(s.as(admin, height), "ghost")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *TripServiceSuite) TestDeniedAdminOperationsLeaveTripUnchanged() {
	s.request("t1")
	_, err := s.service.AssignTrip(s.as(admin, height+1), "t1", "d1", "v1")
	s.Require().NoError(err)
	before, err := s.service.GetTripInfo(context.Background(), "t1")
	s.Require().NoError(err)
	trailBefore, _ := s.trail.ListBySubject(context.Background(), "t1")

	denied := []struct {
		name    string
		call    func() error
		message string
	}{
		{"assign", func() error {
			_, err := s.service.AssignTrip(s.as(stranger, height+5), "t1", "d2", "v2")
			return err
		}, "only an admin may assign a trip"},
		{"update status", func() error {
			_, err := s.service.UpdateTripStatus(s.as(stranger, height+5), "t1", models.StatusInProgress)
			return err
		}, "only an admin may change the status of a trip"},
		{"cancel", func() error {
			_, err := s.service.CancelTrip(s.as(stranger, height+5), "t1")
			return err
		}, "only an admin may cancel a trip"},
	}
	for _, tc := range denied {
		s.Run(tc.name, func() {
			err := tc.call()
			s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
			s.Contains(err.Error(), tc.message)

			after, err := s.service.GetTripInfo(context.Background(), "t1")
			s.Require().NoError(err)
			s.Equal(*before, *after)
		})
	}

	trailAfter, _ := s.trail.ListBySubject(context.Background(), "t1")
	s.Equal(trailBefore, trailAfter, "denied calls record nothing")
}

func (s *TripServiceSuite) TestConcurrentAssignExactlyOneWins() {
	s.request("t1")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			driver := domain.DriverID("d" + string(rune('a'+i)))
			_, err := s.service.AssignTrip(s.as(admin, height+1), "t1", driver, "v1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case dErrors.HasCode(err, dErrors.CodeInvalidState):
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(workers-1, conflicts)
}

func (s *TripServiceSuite) TestAuditAndMetrics() {
	s.request("t1")
	_, _ = s.service.AssignTrip(s.as(stranger, height+1), "t1", "d1", "v1")
	_, _ = s.service.AssignTrip(s.as(admin, height+1), "t1", "d1", "v1")
	_, _ = s.service.CancelTrip(s.as(admin, height+2), "t1")

	events, err := s.trail.ListBySubject(context.Background(), "t1")
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(audit.ActionTripRequested, events[0].Action)
	s.Equal(audit.ActionTripAssigned, events[1].Action)
	s.Equal("d1", events[1].Detail["driver_id"])
	s.Equal(audit.ActionTripCancelled, events[2].Action)
	s.Equal(domain.Principal(admin), events[2].Actor)

	s.Equal(1.0, promtest.ToFloat64(s.metrics.Operations.WithLabelValues("assign", "unauthorized")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Transitions.WithLabelValues("requested", "assigned")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.Transitions.WithLabelValues("assigned", "cancelled")))
}

func TestAssignmentValidation(t *testing.T) {
	newService := func(t *testing.T) (*Service, *mocks.MockDriverValidator, *mocks.MockVehicleValidator) {
		ctrl := gomock.NewController(t)
		drivers := mocks.NewMockDriverValidator(ctrl)
		vehicles := mocks.NewMockVehicleValidator(ctrl)
		svc := New(memory.New[domain.TripID, models.Trip](), access.NewAdmins(admin),
			WithLogger(discardLogger()),
			WithAssignmentValidation(drivers, vehicles),
		)
		_, err := svc.RequestTrip(testutil.AsCaller(context.Background(), "p", height), RequestCommand{TripID: "t1", PatientID: "p1"})
		require.NoError(t, err)
		return svc, drivers, vehicles
	}
	ctx := testutil.AsCaller(context.Background(), admin, height)

	t.Run("both valid", func(t *testing.T) {
		svc, drivers, vehicles := newService(t)
		drivers.EXPECT().IsCertificationValid(gomock.Any(), domain.DriverID("d1")).Return(true, nil)
		vehicles.EXPECT().IsCertificationValid(gomock.Any(), domain.VehicleID("v1")).Return(true, nil)

		trip, err := svc.AssignTrip(ctx, "t1", "d1", "v1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusAssigned, trip.Status)
	})

	t.Run("invalid driver", func(t *testing.T) {
		svc, drivers, vehicles := newService(t)
		drivers.EXPECT().IsCertificationValid(gomock.Any(), domain.DriverID("d1")).Return(false, nil)
		vehicles.EXPECT().IsCertificationValid(gomock.Any(), domain.VehicleID("v1")).Return(true, nil)

		_, err := svc.AssignTrip(ctx, "t1", "d1", "v1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		trip, _ := svc.GetTripInfo(ctx, "t1")
		assert.Equal(t, models.StatusRequested, trip.Status)
		assert.False(t, trip.IsAssigned())
	})

	t.Run("invalid vehicle", func(t *testing.T) {
		svc, drivers, vehicles := newService(t)
		drivers.EXPECT().IsCertificationValid(gomock.Any(), domain.DriverID("d1")).Return(true, nil)
		vehicles.EXPECT().IsCertificationValid(gomock.Any(), domain.VehicleID("v1")).Return(false, nil)

		_, err := svc.AssignTrip(ctx, "t1", "d1", "v1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("registry failure is internal", func(t *testing.T) {
		svc, drivers, vehicles := newService(t)
		drivers.EXPECT().IsCertificationValid(gomock.Any(), gomock.Any()).Return(false, errors.New("connection refused"))
		vehicles.EXPECT().IsCertificationValid(gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()

		_, err := svc.AssignTrip(ctx, "t1", "d1", "v1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("not consulted for non-admins", func(t *testing.T) {
		svc, _, _ := newService(t)
		_, err := svc.AssignTrip(testutil.AsCaller(context.Background(), stranger, height), "t1", "d1", "v1")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestForwardOnlyStatus(t *testing.T) {
	svc := New(memory.New[domain.TripID, models.Trip](), access.NewAdmins(admin),
		WithLogger(discardLogger()),
		WithForwardOnlyStatus(),
	)
	ctx := testutil.AsCaller(context.Background(), admin, height)
	_, err := svc.RequestTrip(ctx, RequestCommand{TripID: "t1", PatientID: "p1"})
	require.NoError(t, err)

	_, err = svc.UpdateTripStatus(ctx, "t1", models.StatusRequested)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState), "same status is not an advance")

	_, err = svc.UpdateTripStatus(ctx, "t1", models.StatusInProgress)
	require.NoError(t, err)
	_, err = svc.UpdateTripStatus(ctx, "t1", models.StatusCompleted)
	require.NoError(t, err)

	_, err = svc.UpdateTripStatus(ctx, "t1", models.StatusRequested)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	_, err = svc.UpdateTripStatus(ctx, "t1", models.StatusCancelled)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState), "completed is terminal")

	_, err = svc.UpdateTripStatus(ctx, "t1", 7)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidStatusValue), "range is checked before the policy")
}

func TestAuditFailureAbortsTheMutation(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockAuditPublisher(ctrl)
	publisher.EXPECT().Record(gomock.Any(), gomock.Any()).Return(audit.Event{}, errors.New("audit store down"))

	svc := New(memory.New[domain.TripID, models.Trip](), access.NewAdmins(admin),
		WithLogger(discardLogger()),
		WithAuditPublisher(publisher),
	)
	_, err := svc.RequestTrip(testutil.AsCaller(context.Background(), "p", height), RequestCommand{TripID: "t1", PatientID: "p1"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.GetTripInfo(context.Background(), "t1")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound), "an unaudited trip must not exist")
}

func TestAuditEventIsCommittedAfterTheWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	publisher := mocks.NewMockAuditPublisher(ctrl)
	store := memory.New[domain.TripID, models.Trip]()

	recorded := audit.Event{ID: "evt-1", Subject: "t1", Action: audit.ActionTripRequested}
	gomock.InOrder(
		publisher.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) (audit.Event, error) {
			assert.Equal(t, "t1", e.Subject)
			assert.Equal(t, "requested", e.Detail["status"])
			assert.Equal(t, 0, store.Len(), "recorded before the trip is written")
			return recorded, nil
		}),
		publisher.EXPECT().Committed(gomock.Any(), recorded),
	)

	svc := New(store, access.NewAdmins(admin), WithLogger(discardLogger()), WithAuditPublisher(publisher))
	_, err := svc.RequestTrip(testutil.AsCaller(context.Background(), "p", height), RequestCommand{TripID: "t1", PatientID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestAdminSetIsConsulted(t *testing.T) {
	ctrl := gomock.NewController(t)
	admins := mocks.NewMockAdminChecker(ctrl)
	admins.EXPECT().IsAdmin(domain.Principal("ops")).Return(true)

	svc := New(memory.New[domain.TripID, models.Trip](), admins, WithLogger(discardLogger()))
	ctx := testutil.AsCaller(context.Background(), "ops", height)
	_, err := svc.RequestTrip(ctx, RequestCommand{TripID: "t1", PatientID: "p1"})
	require.NoError(t, err)

	_, err = svc.CancelTrip(ctx, "t1")
	assert.NoError(t, err)
}

func TestScenarioFullLifecycle(t *testing.T) {
	svc := New(memory.New[domain.TripID, models.Trip](), access.NewAdmins(admin), WithLogger(discardLogger()))
	ctx := testutil.AsCaller(context.Background(), admin, height)

	testutil.Given(t, "a requested trip", func(t *testing.T) {
		trip, err := svc.RequestTrip(ctx, RequestCommand{
			TripID:              "t1",
			PatientID:           "p1",
			PickupLocation:      "A",
			Destination:         "B",
			ScheduledTime:       200,
			SpecialRequirements: "wheelchair",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusRequested, trip.Status)

		testutil.When(t, "an admin assigns it", func(t *testing.T) {
			trip, err := svc.AssignTrip(ctx, "t1", "d1", "v1")
			require.NoError(t, err)

			testutil.Then(t, "it is assigned to the driver", func(t *testing.T) {
				assert.Equal(t, models.StatusAssigned, trip.Status)
				assert.Equal(t, domain.DriverID("d1"), trip.DriverID)
			})
		})

		testutil.When(t, "it starts and is then cancelled", func(t *testing.T) {
			_, err := svc.UpdateTripStatus(ctx, "t1", models.StatusInProgress)
			require.NoError(t, err)
			trip, err := svc.CancelTrip(ctx, "t1")
			require.NoError(t, err)

			testutil.Then(t, "the final status is cancelled", func(t *testing.T) {
				assert.Equal(t, models.StatusCancelled, trip.Status)
			})
		})
	})
}

func TestScenarioExpiredDriverIsNotAssignable(t *testing.T) {
	drivers := driverService.New(memory.New[domain.DriverID, driverModels.Driver](), access.NewAdmins(admin),
		driverService.WithLogger(discardLogger()))
	vehicles := vehicleService.New(memory.New[domain.VehicleID, vehicleModels.Vehicle](), access.NewAdmins(admin),
		vehicleService.WithLogger(discardLogger()))
	trips := New(memory.New[domain.TripID, models.Trip](), access.NewAdmins(admin),
		WithLogger(discardLogger()),
		WithAssignmentValidation(drivers, vehicles),
	)
	ctx := testutil.AsCaller(context.Background(), admin, height)

	testutil.Given(t, "a driver whose certification expired before now", func(t *testing.T) {
		_, err := drivers.RegisterDriver(ctx, driverService.RegisterCommand{
			DriverID:            "d1",
			Name:                "John Doe",
			CertificationExpiry: 50,
		})
		require.NoError(t, err)

		testutil.Then(t, "the driver exists but is not valid", func(t *testing.T) {
			_, err := drivers.GetDriver(ctx, "d1")
			require.NoError(t, err)
			valid, err := drivers.IsCertificationValid(ctx, "d1")
			require.NoError(t, err)
			assert.False(t, valid)
		})

		testutil.And(t, "a certified vehicle and a requested trip", func(t *testing.T) {
			_, err := vehicles.RegisterVehicle(ctx, vehicleService.RegisterCommand{
				VehicleID:           "v1",
				VehicleType:         "Van",
				CertificationExpiry: height + 365,
			})
			require.NoError(t, err)
			_, err = trips.RequestTrip(ctx, RequestCommand{TripID: "t1", PatientID: "p1"})
			require.NoError(t, err)

			testutil.Then(t, "assignment with validation is rejected", func(t *testing.T) {
				_, err := trips.AssignTrip(ctx, "t1", "d1", "v1")
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
			})
		})
	})
}
