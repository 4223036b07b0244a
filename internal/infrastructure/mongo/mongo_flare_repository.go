package mongo

import (
	"context"
	"sort"
	"time"

	"flaretrack/internal/domain/aggregate"
	"flaretrack/internal/domain/event"
	"flaretrack/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoFlareRepository persists flare aggregates event-sourced: the
// flare_events collection is the append-only source of truth, the flares
// collection holds the snapshot document the projection also serves. Both
// writes happen inside the unit of work's session so they commit as one.
type MongoFlareRepository struct {
	database         *mongo.Database
	entityCollection *mongo.Collection
	eventCollection  *mongo.Collection
	session          mongo.Session
}

func NewMongoFlareRepository(database *mongo.Database) *MongoFlareRepository {
	return &MongoFlareRepository{
		database:         database,
		entityCollection: database.Collection("flares"),
		eventCollection:  database.Collection("flare_events"),
	}
}

func (r *MongoFlareRepository) SetTransaction(tx interface{}) {
	if tx == nil {
		r.session = nil
		return
	}
	if session, ok := tx.(mongo.Session); ok {
		r.session = session
	}
}

func (r *MongoFlareRepository) GetTransaction() interface{} {
	return r.session
}

func (r *MongoFlareRepository) IsTransactional() bool {
	return r.session != nil
}

func (r *MongoFlareRepository) sessionContext(ctx context.Context) context.Context {
	if r.session != nil {
		return mongo.NewSessionContext(ctx, r.session)
	}
	return ctx
}

// storedEvent is the envelope every log entry is written in.
type storedEvent struct {
	AggregateID  string    `bson:"aggregate_id"`
	UserID       string    `bson:"user_id"`
	EventType    string    `bson:"event_type"`
	EventVersion int       `bson:"event_version"`
	OccurredAt   time.Time `bson:"occurred_at"`
	Data         bson.Raw  `bson:"event_data"`
}

// Save appends the aggregate's uncommitted events and refreshes its snapshot
// document. With a session set, both writes commit atomically.
func (r *MongoFlareRepository) Save(ctx context.Context, flare *aggregate.Flare) error {
	ctxToUse := r.sessionContext(ctx)

	events := flare.GetUncommittedEvents()
	if len(events) > 0 {
		var eventDocs []interface{}
		for _, e := range events {
			eventDocs = append(eventDocs, bson.M{
				"aggregate_id":  e.AggregateID(),
				"user_id":       flare.UserID(),
				"event_type":    e.EventType(),
				"event_version": e.Version(),
				"occurred_at":   e.OccurredAt(),
				"event_data":    e,
			})
		}

		if _, err := r.eventCollection.InsertMany(ctxToUse, eventDocs); err != nil {
			return errors.NewStorageError("failed to save flare events: " + err.Error())
		}
	}

	entityDoc := bson.M{
		"_id":              flare.ID(),
		"user_id":          flare.UserID(),
		"body_region_id":   flare.BodyRegionID(),
		"start_date":       flare.StartDate(),
		"status":           flare.Status(),
		"initial_severity": flare.InitialSeverity(),
		"current_severity": flare.CurrentSeverity(),
		"peak_severity":    flare.PeakSeverity(),
		"current_stage":    flare.CurrentStage(),
		"trend":            flare.Trend(),
		"notes":            flare.Notes(),
		"is_resolved":      flare.IsResolved(),
		"version":          flare.Version(),
		"created_at":       flare.CreatedAt(),
		"updated_at":       flare.UpdatedAt(),
	}
	if end := flare.EndDate(); end != nil {
		entityDoc["end_date"] = *end
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.entityCollection.UpdateOne(ctxToUse, bson.M{"_id": flare.ID()}, bson.M{"$set": entityDoc}, opts); err != nil {
		return errors.NewStorageError("failed to save flare snapshot: " + err.Error())
	}

	flare.MarkEventsAsCommitted()
	return nil
}

// SaveEvents appends pre-built events for an aggregate with an optimistic
// version check.
func (r *MongoFlareRepository) SaveEvents(ctx context.Context, aggregateID string, events []event.DomainEvent, expectedVersion int) error {
	ctxToUse := r.sessionContext(ctx)

	count, err := r.eventCollection.CountDocuments(ctxToUse, bson.M{"aggregate_id": aggregateID})
	if err != nil {
		return errors.NewStorageError("failed to count flare events: " + err.Error())
	}
	if int(count) != expectedVersion {
		return errors.NewConflictError("concurrency conflict: version mismatch")
	}

	if len(events) == 0 {
		return nil
	}

	var eventDocs []interface{}
	for _, e := range events {
		// Every stored event must carry its owner: GetByUserID replays the
		// user's corpus through a user_id filter, so an unattributed event
		// would silently drop out of analytics.
		userID := eventUserID(e)
		if userID == "" {
			userID, err = r.ownerOf(ctxToUse, aggregateID)
			if err != nil {
				return err
			}
		}
		eventDocs = append(eventDocs, bson.M{
			"aggregate_id":  e.AggregateID(),
			"user_id":       userID,
			"event_type":    e.EventType(),
			"event_version": e.Version(),
			"occurred_at":   e.OccurredAt(),
			"event_data":    e,
		})
	}

	if _, err := r.eventCollection.InsertMany(ctxToUse, eventDocs); err != nil {
		return errors.NewStorageError("failed to save flare events: " + err.Error())
	}
	return nil
}

// eventUserID reads the owner a typed event carries.
func eventUserID(e event.DomainEvent) string {
	switch evt := e.(type) {
	case *event.FlareCreated:
		return evt.UserID
	case *event.FlareSeverityUpdated:
		return evt.UserID
	case *event.FlareTrendChanged:
		return evt.UserID
	case *event.FlareInterventionLogged:
		return evt.UserID
	case *event.FlareStageChanged:
		return evt.UserID
	case *event.FlareStatusChanged:
		return evt.UserID
	case *event.FlareResolved:
		return evt.UserID
	default:
		return ""
	}
}

// ownerOf resolves an aggregate's user from its stored log.
func (r *MongoFlareRepository) ownerOf(ctx context.Context, aggregateID string) (string, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "event_version", Value: 1}})
	var stored storedEvent
	err := r.eventCollection.FindOne(ctx, bson.M{"aggregate_id": aggregateID}, opts).Decode(&stored)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", errors.NewNotFoundError("flare")
		}
		return "", errors.NewStorageError("failed to resolve flare owner: " + err.Error())
	}
	if stored.UserID == "" {
		return "", errors.NewStorageError("flare event log has no owner attribution")
	}
	return stored.UserID, nil
}

// GetEvents returns the ordered event log for an aggregate.
func (r *MongoFlareRepository) GetEvents(ctx context.Context, aggregateID string) ([]event.DomainEvent, error) {
	return r.findEvents(ctx, bson.M{"aggregate_id": aggregateID})
}

// GetByID rebuilds a flare by replaying its event log.
func (r *MongoFlareRepository) GetByID(ctx context.Context, id string) (*aggregate.Flare, error) {
	events, err := r.GetEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, errors.NewNotFoundError("flare")
	}
	return aggregate.NewFlareFromHistory(events)
}

// GetByUserID rebuilds every flare belonging to a user from the event log.
func (r *MongoFlareRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregate.Flare, error) {
	events, err := r.findEvents(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}

	byAggregate := make(map[string][]event.DomainEvent)
	order := make([]string, 0)
	for _, e := range events {
		if _, seen := byAggregate[e.AggregateID()]; !seen {
			order = append(order, e.AggregateID())
		}
		byAggregate[e.AggregateID()] = append(byAggregate[e.AggregateID()], e)
	}

	flares := make([]*aggregate.Flare, 0, len(order))
	for _, id := range order {
		f, err := aggregate.NewFlareFromHistory(byAggregate[id])
		if err != nil {
			return nil, err
		}
		flares = append(flares, f)
	}

	sort.Slice(flares, func(i, j int) bool {
		return flares[i].CreatedAt().Before(flares[j].CreatedAt())
	})

	return flares, nil
}

func (r *MongoFlareRepository) findEvents(ctx context.Context, filter bson.M) ([]event.DomainEvent, error) {
	ctxToUse := r.sessionContext(ctx)

	opts := options.Find().SetSort(bson.D{
		{Key: "aggregate_id", Value: 1},
		{Key: "event_version", Value: 1},
	})
	cursor, err := r.eventCollection.Find(ctxToUse, filter, opts)
	if err != nil {
		return nil, errors.NewStorageError("failed to load flare events: " + err.Error())
	}
	defer cursor.Close(ctxToUse)

	var events []event.DomainEvent
	for cursor.Next(ctxToUse) {
		var stored storedEvent
		if err := cursor.Decode(&stored); err != nil {
			return nil, errors.NewStorageError("failed to decode flare event: " + err.Error())
		}
		decoded, err := decodeEvent(stored)
		if err != nil {
			return nil, err
		}
		events = append(events, decoded)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.NewStorageError("failed to iterate flare events: " + err.Error())
	}

	return events, nil
}

// decodeEvent rehydrates a typed domain event from its stored envelope.
func decodeEvent(stored storedEvent) (event.DomainEvent, error) {
	var target event.DomainEvent
	switch stored.EventType {
	case "FlareCreated":
		target = &event.FlareCreated{}
	case "FlareSeverityUpdated":
		target = &event.FlareSeverityUpdated{}
	case "FlareTrendChanged":
		target = &event.FlareTrendChanged{}
	case "FlareInterventionLogged":
		target = &event.FlareInterventionLogged{}
	case "FlareStageChanged":
		target = &event.FlareStageChanged{}
	case "FlareStatusChanged":
		target = &event.FlareStatusChanged{}
	case "FlareResolved":
		target = &event.FlareResolved{}
	default:
		return nil, errors.NewStorageError("unknown stored event type: " + stored.EventType)
	}

	if err := bson.Unmarshal(stored.Data, target); err != nil {
		return nil, errors.NewStorageError("failed to unmarshal " + stored.EventType + ": " + err.Error())
	}
	return target, nil
}
