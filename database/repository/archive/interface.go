package archiveRepo

import (
	"context"

	"aerovoice/database"
	"aerovoice/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// CompletedBookingRepository stores after-the-fact copies of finished (or
// abandoned) bookings for audit and reporting.
type CompletedBookingRepository interface {
	Create(ctx context.Context, booking models.CompletedBooking) (string, error)
	GetByID(ctx context.Context, id string) (*models.CompletedBooking, error)
	GetBySessionID(ctx context.Context, sessionID string) ([]models.CompletedBooking, error)
	DeleteByID(ctx context.Context, id string) error
}

type mongoArchiveRepo struct {
	coll *mongo.Collection
}

// NewMongoArchiveRepo returns a CompletedBookingRepository backed by MongoDB.
func NewMongoArchiveRepo() CompletedBookingRepository {
	db := database.MongoClient.Database("aerovoice")
	return &mongoArchiveRepo{
		coll: db.Collection("completed_bookings"),
	}
}
