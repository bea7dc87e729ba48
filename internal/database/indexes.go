package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	log.Println("EnsureUserIndexes: email_unique index created")
	return nil
}

// EnsureOrderIndexes creates the lookup indexes for orders plus the unique
// constraint on orderNumber that rules out display-number collisions.
func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderNumberIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().
			SetName("orderNumber_unique").
			SetUnique(true),
	}

	log.Println("EnsureOrderIndexes: creating orderNumber_unique index")
	if _, err := indexes.CreateOne(ctx, orderNumberIndex); err != nil {
		log.Println("EnsureOrderIndexes: orderNumber index error:", err)
		return err
	}

	customerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "customerId", Value: 1}},
		Options: options.Index().SetName("customerId_index"),
	}

	log.Println("EnsureOrderIndexes: creating customerId_index index")
	if _, err := indexes.CreateOne(ctx, customerIndex); err != nil {
		log.Println("EnsureOrderIndexes: customerId index error:", err)
		return err
	}

	partnerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "deliveryPartnerId", Value: 1}},
		Options: options.Index().SetName("deliveryPartnerId_index"),
	}

	log.Println("EnsureOrderIndexes: creating deliveryPartnerId_index index")
	if _, err := indexes.CreateOne(ctx, partnerIndex); err != nil {
		log.Println("EnsureOrderIndexes: deliveryPartnerId index error:", err)
		return err
	}
	return nil
}

func EnsurePartnerIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("delivery_partners").Indexes()

	phoneIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().
			SetName("phone_unique").
			SetUnique(true),
	}

	log.Println("EnsurePartnerIndexes: creating phone_unique index")
	if _, err := indexes.CreateOne(ctx, phoneIndex); err != nil {
		log.Println("EnsurePartnerIndexes: phone index error:", err)
		return err
	}

	availableIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "available", Value: 1}},
		Options: options.Index().SetName("available_index"),
	}

	log.Println("EnsurePartnerIndexes: creating available_index index")
	if _, err := indexes.CreateOne(ctx, availableIndex); err != nil {
		log.Println("EnsurePartnerIndexes: available index error:", err)
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	ownerIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetName("ownerId_index"),
	}

	log.Println("EnsureProductIndexes: creating ownerId_index index")
	if _, err := indexes.CreateOne(ctx, ownerIndex); err != nil {
		log.Println("EnsureProductIndexes: ownerId index error:", err)
		return err
	}
	return nil
}
