package cron

import (
	"context"
	"log"
	"time"

	"aerovoice/config"
	archiveRepo "aerovoice/database/repository/archive"
	"aerovoice/models"
	"aerovoice/services/dialog"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const TypeSessionSweep = "session:sweep"

// InitSessionSweeper runs the async worker that aborts and archives sessions
// left idle past the configured cutoff. Redis TTL is the backstop; the
// sweeper exists so abandoned bookings land in the archive instead of
// silently expiring.
func InitSessionSweeper(store dialog.SessionStore, archive archiveRepo.CompletedBookingRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweeperQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSessionSweep, handleSweepTask(store, archive))

	go enqueueSweeps(redisOpts)
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[SessionSweeper] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SessionSweeper] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SessionSweeper] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

// enqueueSweeps schedules a sweep task every five minutes.
func enqueueSweeps(redisOpts asynq.RedisClientOpt) {
	client := asynq.NewClient(redisOpts)
	defer client.Close()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		task := asynq.NewTask(TypeSessionSweep, nil)
		if _, err := client.Enqueue(task, asynq.MaxRetry(1)); err != nil {
			log.Printf("[SessionSweeper] failed to enqueue sweep: %v", err)
		}
	}
}

func handleSweepTask(store dialog.SessionStore, archive archiveRepo.CompletedBookingRepository) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		cutoff := time.Now().Add(-time.Duration(config.AppConfig.SweepIdleMin) * time.Minute)
		stale, err := store.Stale(ctx, cutoff)
		if err != nil {
			log.Printf("[SessionSweeper] failed to list stale sessions: %v", err)
			return err
		}

		for _, sess := range stale {
			rec := &sess.Record
			booking := models.CompletedBooking{
				SessionID:       sess.SessionID,
				PassengerName:   rec.Passenger.FullName.Value,
				Origin:          rec.Trip.Origin.Value,
				Destination:     rec.Trip.Destination.Value,
				TripType:        rec.Trip.TripType.Value,
				DepartureDate:   rec.Trip.DepartureDate.Value,
				ReturnDate:      rec.Trip.ReturnDate.Value,
				CabinClass:      rec.Trip.CabinClass.Value,
				Flight:          rec.SelectedFlight,
				PaymentIntentID: sess.PaymentIntentID,
				Status:          models.ArchiveStatusAbandoned,
				Turns:           len(rec.History),
			}
			if _, err := archive.Create(ctx, booking); err != nil {
				log.Printf("[SessionSweeper] failed to archive session %s: %v", sess.SessionID, err)
				continue
			}
			if err := store.Delete(ctx, sess.SessionID); err != nil {
				log.Printf("[SessionSweeper] failed to delete session %s: %v", sess.SessionID, err)
			}
		}

		if len(stale) > 0 {
			log.Printf("[SessionSweeper] swept %d idle session(s)", len(stale))
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweeperQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[SessionSweeper] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
