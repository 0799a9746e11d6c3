package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"medtransit/internal/access"
	"medtransit/internal/audit"
	auditkafka "medtransit/internal/audit/kafka"
	driverHandler "medtransit/internal/driver/handler"
	driverModels "medtransit/internal/driver/models"
	driverService "medtransit/internal/driver/service"
	jwttoken "medtransit/internal/jwt_token"
	patientHandler "medtransit/internal/patient/handler"
	patientModels "medtransit/internal/patient/models"
	patientService "medtransit/internal/patient/service"
	"medtransit/internal/platform/config"
	"medtransit/internal/platform/httpserver"
	"medtransit/internal/platform/kafka"
	"medtransit/internal/platform/logger"
	"medtransit/internal/platform/metrics"
	"medtransit/internal/platform/postgres"
	redisclient "medtransit/internal/platform/redis"
	"medtransit/internal/registry"
	httptransport "medtransit/internal/transport/http"
	tripHandler "medtransit/internal/trip/handler"
	tripMetrics "medtransit/internal/trip/metrics"
	tripModels "medtransit/internal/trip/models"
	tripService "medtransit/internal/trip/service"
	vehicleHandler "medtransit/internal/vehicle/handler"
	vehicleModels "medtransit/internal/vehicle/models"
	vehicleService "medtransit/internal/vehicle/service"
	"medtransit/pkg/domain"
)

const auditTopicPartitions = 3

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	admins := access.ParseAdmins(cfg.AdminPrincipals)
	if admins.Len() == 0 {
		log.Warn("ADMIN_PRINCIPALS is empty; every admin-gated operation will be refused")
	}

	health := map[string]httptransport.HealthCheck{}
	b := backend{name: cfg.StorageBackend}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		if db == nil {
			return errors.New("STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
		defer db.Close()
		b.db = db
		health["postgres"] = db.PingContext
	case config.BackendRedis:
		client, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		if client == nil {
			return errors.New("STORAGE_BACKEND=redis requires REDIS_URL")
		}
		defer client.Close()
		b.redis = client.Client
		b.redisPrefix = cfg.Redis.KeyPrefix
		health["redis"] = client.Health
	}

	reg := metrics.NewRegistry()
	registryMetrics := registry.NewMetrics(reg)
	auditMetrics := audit.NewMetrics(reg)

	g, gctx := errgroup.WithContext(ctx)

	publisherOpts := []audit.PublisherOption{audit.WithPublisherMetrics(auditMetrics)}
	kafkaClient, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return err
	}
	if kafkaClient != nil {
		defer kafkaClient.Close()
		if err := kafkaClient.EnsureTopic(ctx, auditTopicPartitions); err != nil {
			return err
		}
		buffer := audit.NewRingBuffer(cfg.Kafka.BufferSize)
		publisherOpts = append(publisherOpts, audit.WithRelayBuffer(buffer))
		relay := audit.NewRelay(buffer, auditkafka.NewSink(kafkaClient, kafkaClient.Topic()),
			audit.WithRelayInterval(cfg.Kafka.FlushInterval),
			audit.WithRelayMetrics(auditMetrics),
			audit.WithRelayLogger(log),
		)
		g.Go(func() error { return relay.Run(gctx) })
		health["kafka"] = kafkaClient.Health
		log.Info("audit relay enabled", "topic", kafkaClient.Topic())
	}
	trail, err := openAuditStore(ctx, b)
	if err != nil {
		return err
	}
	publisher := audit.NewPublisher(trail, publisherOpts...)

	driverStore, driverTx, err := openStore[domain.DriverID, driverModels.Driver](ctx, b, "driver", "drivers")
	if err != nil {
		return err
	}
	drivers := driverService.New(driverStore, admins,
		driverService.WithLogger(log),
		driverService.WithAuditPublisher(publisher),
		driverService.WithMetrics(registryMetrics),
		driverService.WithTx(driverTx),
	)

	vehicleStore, vehicleTx, err := openStore[domain.VehicleID, vehicleModels.Vehicle](ctx, b, "vehicle", "vehicles")
	if err != nil {
		return err
	}
	vehicles := vehicleService.New(vehicleStore, admins,
		vehicleService.WithLogger(log),
		vehicleService.WithAuditPublisher(publisher),
		vehicleService.WithMetrics(registryMetrics),
		vehicleService.WithTx(vehicleTx),
	)

	patientStore, patientTx, err := openStore[domain.PatientID, patientModels.Patient](ctx, b, "patient", "patients")
	if err != nil {
		return err
	}
	patients := patientService.New(patientStore,
		patientService.WithLogger(log),
		patientService.WithAuditPublisher(publisher),
		patientService.WithMetrics(registryMetrics),
		patientService.WithTx(patientTx),
	)

	tripStore, tripTx, err := openStore[domain.TripID, tripModels.Trip](ctx, b, "trip", "trips")
	if err != nil {
		return err
	}
	tripOpts := []tripService.Option{
		tripService.WithLogger(log),
		tripService.WithAuditPublisher(publisher),
		tripService.WithMetrics(tripMetrics.New(reg)),
		tripService.WithTx(tripTx),
	}
	if cfg.Trips.ValidateAssignments {
		tripOpts = append(tripOpts, tripService.WithAssignmentValidation(drivers, vehicles))
	}
	if cfg.Trips.ForwardOnlyStatus {
		tripOpts = append(tripOpts, tripService.WithForwardOnlyStatus())
	}
	trips := tripService.New(tripStore, admins, tripOpts...)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Resolver: jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer),
		Admins:   admins,
		Registry: reg,
		HTTP:     metrics.NewHTTP(reg),
		Health:   health,
	},
		[]httptransport.Module{
			tripHandler.New(trips, log),
			driverHandler.New(drivers, log),
			vehicleHandler.New(vehicles, log),
			patientHandler.New(patients, log),
		},
		audit.NewHandler(publisher, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("starting medtransit", "addr", cfg.Addr, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
