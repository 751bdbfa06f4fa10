package consumers

import (
	"context"
	"log"
	"log/slog"

	"tessera/internal/config"
	"tessera/internal/database"
	"tessera/internal/jobs"
	"tessera/internal/messaging"
	"tessera/internal/models"
	"tessera/internal/repository"
	"tessera/internal/search"
	"tessera/internal/service"
)

// ConsumerService is the background worker: it consumes payment events from
// NATS and runs the periodic jobs that reclaim expired holds and finish
// ended concerts.
type ConsumerService struct {
	db            *database.DB
	nats          *messaging.NATSClient
	repos         *repository.Repositories
	handlers      *Handlers
	holdSweep     *jobs.HoldExpirationJob
	concertFinish *jobs.ConcertCompletionJob
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	concertIndex, err := search.NewConcertIndex(cfg.Elasticsearch)
	if err != nil {
		log.Printf("Elasticsearch unavailable, concert indexing disabled: %v", err)
		concertIndex = nil
	}

	repos := repository.NewRepositories(db)

	var indexer service.ConcertIndexer
	if concertIndex != nil {
		indexer = concertIndex
	}

	services := service.NewServices(repos, natsClient, indexer, service.Options{
		HoldTTL:       cfg.HoldTTL,
		RefundRestock: cfg.RefundRestock,
	})

	return &ConsumerService{
		db:            db,
		nats:          natsClient,
		repos:         repos,
		handlers:      NewHandlers(services),
		holdSweep:     jobs.NewHoldExpirationJob(services.Orders, cfg.SweepInterval),
		concertFinish: jobs.NewConcertCompletionJob(services.Concerts, cfg.SweepInterval),
	}, nil
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	_, err := cs.nats.SubscribeQueue(models.EventPaymentCompleted, "workers", cs.handlers.HandlePaymentCompleted)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventPaymentFailed, "workers", cs.handlers.HandlePaymentFailed)
	if err != nil {
		return err
	}

	cs.holdSweep.Start(context.Background())
	cs.concertFinish.Start(context.Background())

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	cs.holdSweep.Stop()
	cs.concertFinish.Stop()

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
