package archiveRepo

import (
	"context"
	"errors"
	"time"

	"aerovoice/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Create inserts a new completed-booking document and returns its ID.
func (r *mongoArchiveRepo) Create(ctx context.Context, booking models.CompletedBooking) (string, error) {
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.coll.InsertOne(ctx, booking)
	if err != nil {
		return "", err
	}
	return booking.ID, nil
}

// GetByID returns an archived booking by its ID.
func (r *mongoArchiveRepo) GetByID(ctx context.Context, id string) (*models.CompletedBooking, error) {
	var booking models.CompletedBooking
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBySessionID fetches all archived bookings for a session.
func (r *mongoArchiveRepo) GetBySessionID(ctx context.Context, sessionID string) ([]models.CompletedBooking, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"sessionId": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []models.CompletedBooking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// DeleteByID removes an archived booking by ID.
func (r *mongoArchiveRepo) DeleteByID(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errors.New("archived booking not found")
	}
	return nil
}
