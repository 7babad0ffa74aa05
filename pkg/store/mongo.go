package store

import (
	"context"
	"errors"
	"time"

	"github.com/example/ordershop/pkg/config"
	"github.com/example/ordershop/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoOrderStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	config     *config.MongoDBConfig
}

func NewMongoOrderStore(cfg *config.MongoDBConfig) (*MongoOrderStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &MongoOrderStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		config:     cfg,
	}, nil
}

func (m *MongoOrderStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoOrderStore) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoOrderStore) Insert(ctx context.Context, order *models.Order) (string, error) {
	order.ID = primitive.NewObjectID().Hex()
	order.CreatedAt = time.Now().UTC()
	if order.Status == "" {
		order.Status = models.StatusPending
	}

	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		return "", err
	}
	return order.ID, nil
}

func (m *MongoOrderStore) Get(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *MongoOrderStore) ListAll(ctx context.Context) ([]models.Order, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoOrderStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return m.find(ctx, bson.M{"userId": userID})
}

func (m *MongoOrderStore) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (m *MongoOrderStore) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := m.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (m *MongoOrderStore) Delete(ctx context.Context, id string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
