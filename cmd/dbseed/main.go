// Command dbseed prepares the backend's MongoDB: it creates the
// collections and indexes the API relies on and seeds a demo
// restaurant with an admin account. Throwaway operational tooling, not
// part of the client itself.
package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"restomanager/client/internal/config"
)

const databaseName = "restaurante_manager"

func main() {
	cfg := config.Load()
	log := logrus.WithField("component", "dbseed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logrus.Fatalf("mongo connect failed: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("disconnect error")
		}
	}()

	if err := client.Ping(ctx, nil); err != nil {
		logrus.Fatalf("mongo unreachable: %v", err)
	}
	log.Info("connected to mongo")

	db := client.Database(databaseName)
	if err := ensureIndexes(ctx, db); err != nil {
		logrus.Fatalf("index creation failed: %v", err)
	}
	log.Info("indexes ensured")

	if err := seedDemoData(ctx, db); err != nil {
		logrus.Fatalf("seeding failed: %v", err)
	}
	log.Info("database ready")
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	sparse := options.Index().SetSparse(true)

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "restaurant", Value: 1}}},
		},
		"restaurants": {
			{Keys: bson.D{{Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "contact.email", Value: 1}}},
		},
		"inventoryitems": {
			{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "isActive", Value: 1}}},
			{Keys: bson.D{{Key: "sku", Value: 1}}, Options: sparse},
		},
		"orders": {
			{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "orderNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "customer.name", Value: 1}}},
		},
		"cashcloses": {
			{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "date", Value: -1}}},
			{Keys: bson.D{{Key: "restaurant", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "openedBy", Value: 1}}},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
		logrus.WithField("collection", collection).Debug("indexes created")
	}
	return nil
}

// seedDemoData inserts a demo restaurant, an admin user, and starter
// inventory. It is idempotent: an existing admin user means the
// database was already seeded.
func seedDemoData(ctx context.Context, db *mongo.Database) error {
	const adminEmail = "admin@restaurante.local"

	count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": adminEmail})
	if err != nil {
		return err
	}
	if count > 0 {
		logrus.Info("already seeded, skipping")
		return nil
	}

	now := time.Now().UTC()

	restaurant, err := db.Collection("restaurants").InsertOne(ctx, bson.M{
		"name":      "Restaurante Demo",
		"contact":   bson.M{"email": adminEmail},
		"createdAt": now,
	})
	if err != nil {
		return err
	}
	restaurantID := restaurant.InsertedID

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if _, err := db.Collection("users").InsertOne(ctx, bson.M{
		"name":       "Administrador",
		"email":      adminEmail,
		"password":   string(hash),
		"role":       "admin",
		"active":     true,
		"restaurant": restaurantID,
		"preferences": bson.M{
			"notifications":        true,
			"darkMode":             false,
			"language":             "es",
			"lowStockThreshold":    5,
			"mediumStockThreshold": 15,
		},
		"createdAt": now,
	}); err != nil {
		return err
	}

	items := []any{
		bson.M{"name": "Arroz", "quantity": 40, "unit": "kg", "costPrice": 3500, "sellingPrice": 0, "category": "Granos", "restaurant": restaurantID, "isActive": true, "createdAt": now},
		bson.M{"name": "Pollo", "quantity": 12, "unit": "kg", "costPrice": 12000, "sellingPrice": 0, "category": "Carnes", "restaurant": restaurantID, "isActive": true, "createdAt": now},
		bson.M{"name": "Gaseosa 1.5L", "quantity": 3, "unit": "und", "costPrice": 4000, "sellingPrice": 6500, "category": "Bebidas", "restaurant": restaurantID, "isActive": true, "createdAt": now},
	}
	if _, err := db.Collection("inventoryitems").InsertMany(ctx, items); err != nil {
		return err
	}

	logrus.WithField("restaurant", "Restaurante Demo").Info("demo data seeded")
	return nil
}
