package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry owned by a retailer or wholesaler. Wholesaler
// products surface in retailer views through proxy availability and become
// retailer-owned copies only on explicit adoption.
type Product struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Price       float64             `bson:"price" json:"price"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Stock       int                 `bson:"stock" json:"stock"`
	InStock     bool                `bson:"-" json:"inStock"`
	OwnerID     primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	OwnerRole   string              `bson:"ownerRole" json:"ownerRole"`
	SourceID    *primitive.ObjectID `bson:"sourceId,omitempty" json:"sourceId,omitempty"`
	IsActive    bool                `bson:"isActive" json:"isActive"`
	IsDeleted   bool                `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt   *time.Time          `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}
