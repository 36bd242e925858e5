// Package mongostore keeps drawings as MongoDB documents.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"drawr/internal/domain"
)

const (
	collection = "drawings"
	opTimeout  = 30 * time.Second
)

type drawingDoc struct {
	ID          string             `bson:"_id"`
	Name        string             `bson:"name"`
	Layers      []domain.LayerData `bson:"layers"`
	ActiveLayer string             `bson:"active_layer"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func toDoc(d *domain.Drawing) drawingDoc {
	layers := d.Layers
	if layers == nil {
		layers = []domain.LayerData{}
	}
	return drawingDoc{
		ID:          d.ID,
		Name:        d.Name,
		Layers:      layers,
		ActiveLayer: d.ActiveLayer,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (doc drawingDoc) drawing() *domain.Drawing {
	return &domain.Drawing{
		ID:          doc.ID,
		Name:        doc.Name,
		Layers:      doc.Layers,
		ActiveLayer: doc.ActiveLayer,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// Store implements domain.DrawingStore on a MongoDB database.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	log    *logrus.Entry
}

// Connect opens a client for uri and uses database dbName.
func Connect(uri, dbName string, log *logrus.Entry) (*Store, error) {
	if dbName == "" {
		dbName = "drawr"
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	log.WithField("database", dbName).Info("mongo client created")
	return &Store{
		client: client,
		coll:   client.Database(dbName).Collection(collection),
		log:    log,
	}, nil
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateDrawing(ctx context.Context, d *domain.Drawing) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := s.coll.InsertOne(ctx, toDoc(d)); err != nil {
		return fmt.Errorf("insert drawing: %w", err)
	}
	return nil
}

func (s *Store) GetDrawing(ctx context.Context, id string) (*domain.Drawing, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc drawingDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get drawing %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get drawing: %w", err)
	}
	return doc.drawing(), nil
}

func (s *Store) ListDrawings(ctx context.Context) ([]domain.DrawingSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"name": 1, "updated_at": 1})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find drawings: %w", err)
	}
	defer cursor.Close(ctx)

	var out []domain.DrawingSummary
	for cursor.Next(ctx) {
		var doc drawingDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode drawing: %w", err)
		}
		out = append(out, domain.DrawingSummary{ID: doc.ID, Name: doc.Name, UpdatedAt: doc.UpdatedAt})
	}
	return out, cursor.Err()
}

func (s *Store) UpdateDrawing(ctx context.Context, d *domain.Drawing) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	d.UpdatedAt = time.Now().UTC()
	doc := toDoc(d)
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": d.ID}, bson.M{"$set": bson.M{
		"name":         doc.Name,
		"layers":       doc.Layers,
		"active_layer": doc.ActiveLayer,
		"updated_at":   doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update drawing: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update drawing %s: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteDrawing(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete drawing: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete drawing %s: %w", id, domain.ErrNotFound)
	}
	s.log.WithField("drawing_id", id).Debug("drawing deleted")
	return nil
}
