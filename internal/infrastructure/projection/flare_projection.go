package projection

import (
	"context"
	"fmt"
	"log"
	"time"

	"flaretrack/internal/domain/event"
	"flaretrack/internal/domain/lifecycle"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FlareReadModel represents the read model for flare queries. It mirrors the
// aggregate projection and is only ever written by the event handlers below.
type FlareReadModel struct {
	ID              string          `bson:"_id" json:"id"`
	UserID          string          `bson:"user_id" json:"user_id"`
	BodyRegionID    string          `bson:"body_region_id" json:"body_region_id"`
	StartDate       time.Time       `bson:"start_date" json:"start_date"`
	EndDate         *time.Time      `bson:"end_date,omitempty" json:"end_date,omitempty"`
	Status          event.Status    `bson:"status" json:"status"`
	InitialSeverity int             `bson:"initial_severity" json:"initial_severity"`
	CurrentSeverity int             `bson:"current_severity" json:"current_severity"`
	PeakSeverity    int             `bson:"peak_severity" json:"peak_severity"`
	CurrentStage    lifecycle.Stage `bson:"current_stage,omitempty" json:"current_stage,omitempty"`
	Trend           event.Trend     `bson:"trend,omitempty" json:"trend,omitempty"`
	Notes           string          `bson:"notes,omitempty" json:"notes,omitempty"`
	IsResolved      bool            `bson:"is_resolved" json:"-"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// FlareProjection handles flare read model operations
type FlareProjection interface {
	GetByID(ctx context.Context, id string) (*FlareReadModel, error)
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]*FlareReadModel, error)
	HandleFlareCreated(ctx context.Context, event *event.FlareCreated) error
	HandleSeverityUpdated(ctx context.Context, event *event.FlareSeverityUpdated) error
	HandleTrendChanged(ctx context.Context, event *event.FlareTrendChanged) error
	HandleInterventionLogged(ctx context.Context, event *event.FlareInterventionLogged) error
	HandleStageChanged(ctx context.Context, event *event.FlareStageChanged) error
	HandleStatusChanged(ctx context.Context, event *event.FlareStatusChanged) error
	HandleFlareResolved(ctx context.Context, event *event.FlareResolved) error
}

// MongoFlareProjection implements FlareProjection using MongoDB
type MongoFlareProjection struct {
	collection *mongo.Collection
}

// NewMongoFlareProjection creates a new MongoDB flare projection
func NewMongoFlareProjection(db *mongo.Database) *MongoFlareProjection {
	collection := db.Collection("flares")

	ctx := context.Background()
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "body_region_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "is_resolved", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("warning: failed to create flare indexes: %v", err)
	}

	return &MongoFlareProjection{
		collection: collection,
	}
}

// GetByID retrieves a flare by ID
func (p *MongoFlareProjection) GetByID(ctx context.Context, id string) (*FlareReadModel, error) {
	var flare FlareReadModel
	err := p.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&flare)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("flare not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get flare: %w", err)
	}
	return &flare, nil
}

// GetByUserID retrieves a user's flares with pagination, unresolved first,
// newest start date first within each group.
func (p *MongoFlareProjection) GetByUserID(ctx context.Context, userID string, offset, limit int) ([]*FlareReadModel, error) {
	opts := options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "is_resolved", Value: 1}, {Key: "start_date", Value: -1}})

	cursor, err := p.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find flares: %w", err)
	}
	defer cursor.Close(ctx)

	var flares []*FlareReadModel
	if err := cursor.All(ctx, &flares); err != nil {
		return nil, fmt.Errorf("failed to decode flares: %w", err)
	}

	return flares, nil
}

// HandleFlareCreated handles the FlareCreated event
func (p *MongoFlareProjection) HandleFlareCreated(ctx context.Context, event *event.FlareCreated) error {
	flare := &FlareReadModel{
		ID:              event.FlareID,
		UserID:          event.UserID,
		BodyRegionID:    event.BodyRegionID,
		StartDate:       event.StartDate,
		Status:          "active",
		InitialSeverity: event.Severity,
		CurrentSeverity: event.Severity,
		PeakSeverity:    event.Severity,
		Notes:           event.Notes,
		CreatedAt:       event.Timestamp,
		UpdatedAt:       event.Timestamp,
	}

	if _, err := p.collection.InsertOne(ctx, flare); err != nil {
		return fmt.Errorf("failed to insert flare: %w", err)
	}

	return nil
}

// HandleSeverityUpdated handles the FlareSeverityUpdated event
func (p *MongoFlareProjection) HandleSeverityUpdated(ctx context.Context, event *event.FlareSeverityUpdated) error {
	update := bson.M{
		"$set": bson.M{
			"current_severity": event.Severity,
			"updated_at":       event.Timestamp,
		},
		"$max": bson.M{
			"peak_severity": event.Severity,
		},
	}
	return p.updateOne(ctx, event.FlareID, update)
}

// HandleTrendChanged handles the FlareTrendChanged event
func (p *MongoFlareProjection) HandleTrendChanged(ctx context.Context, event *event.FlareTrendChanged) error {
	update := bson.M{
		"$set": bson.M{
			"trend":      event.Trend,
			"updated_at": event.Timestamp,
		},
	}
	return p.updateOne(ctx, event.FlareID, update)
}

// HandleInterventionLogged handles the FlareInterventionLogged event.
// Interventions live in the event log; the read model only tracks freshness.
func (p *MongoFlareProjection) HandleInterventionLogged(ctx context.Context, event *event.FlareInterventionLogged) error {
	update := bson.M{
		"$set": bson.M{
			"updated_at": event.Timestamp,
		},
	}
	return p.updateOne(ctx, event.FlareID, update)
}

// HandleStageChanged handles the FlareStageChanged event
func (p *MongoFlareProjection) HandleStageChanged(ctx context.Context, event *event.FlareStageChanged) error {
	update := bson.M{
		"$set": bson.M{
			"current_stage": event.ToStage,
			"updated_at":    event.Timestamp,
		},
	}
	return p.updateOne(ctx, event.FlareID, update)
}

// HandleStatusChanged handles the FlareStatusChanged event
func (p *MongoFlareProjection) HandleStatusChanged(ctx context.Context, event *event.FlareStatusChanged) error {
	update := bson.M{
		"$set": bson.M{
			"status":     event.Status,
			"updated_at": event.Timestamp,
		},
	}
	return p.updateOne(ctx, event.FlareID, update)
}

// HandleFlareResolved handles the FlareResolved event
func (p *MongoFlareProjection) HandleFlareResolved(ctx context.Context, event *event.FlareResolved) error {
	update := bson.M{
		"$set": bson.M{
			"status":      "resolved",
			"end_date":    event.ResolutionDate,
			"is_resolved": true,
			"updated_at":  event.Timestamp,
		},
	}
	return p.updateOne(ctx, event.FlareID, update)
}

func (p *MongoFlareProjection) updateOne(ctx context.Context, flareID string, update bson.M) error {
	result, err := p.collection.UpdateOne(ctx, bson.M{"_id": flareID}, update)
	if err != nil {
		return fmt.Errorf("failed to update flare: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("flare not found: %s", flareID)
	}
	return nil
}
