package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// Proxy availability: retailers see wholesaler stock alongside their own
// catalog as if owned. A wholesaler product only becomes a real retailer
// product on explicit adoption.

type proxyProduct struct {
	models.Product
	Proxy bool `json:"proxy"`
}

type adoptProductRequest struct {
	Price *float64 `json:"price" binding:"required"`
	Stock *int     `json:"stock" binding:"required"`
}

// GetProxyProducts merges the retailer's own products with all wholesaler
// products, the latter flagged proxy:true.
func GetProxyProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /retailer/proxy-products"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("products").Find(ctx, bson.M{
			"isDeleted": bson.M{"$ne": true},
			"$or": []bson.M{
				{"ownerId": userID},
				{"ownerRole": models.RoleWholesaler, "isActive": true},
			},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		merged := make([]proxyProduct, 0)
		for cursor.Next(ctx) {
			var product models.Product
			if err := cursor.Decode(&product); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			product.InStock = product.Stock > 0
			merged = append(merged, proxyProduct{
				Product: product,
				Proxy:   product.OwnerID != userID,
			})
		}
		if err := cursor.Err(); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"products": merged})
	}
}

// AdoptProxyProduct copies a wholesaler product into the retailer's own
// catalog with the retailer's chosen price and stock. The copy records its
// source so repeated adoption of the same product is rejected.
func AdoptProxyProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /retailer/proxy-products/:id/adopt"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		sourceID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req adoptProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if *req.Price <= 0 {
			respondWithError(c, http.StatusBadRequest, route, "price must be greater than zero")
			return
		}
		if *req.Stock < 0 {
			respondWithError(c, http.StatusBadRequest, route, "stock cannot be negative")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var source models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       sourceID,
			"ownerRole": models.RoleWholesaler,
			"isDeleted": bson.M{"$ne": true},
		}).Decode(&source)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "wholesaler product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{
			"ownerId":   userID,
			"sourceId":  sourceID,
			"isDeleted": bson.M{"$ne": true},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, route, "product already in inventory")
			return
		}

		product := models.Product{
			Name:        source.Name,
			Price:       *req.Price,
			Description: source.Description,
			Stock:       *req.Stock,
			OwnerID:     userID,
			OwnerRole:   models.RoleRetailer,
			SourceID:    &sourceID,
			IsActive:    true,
			CreatedAt:   time.Now(),
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}
		product.InStock = product.Stock > 0

		log.Println("[PROXY] [INFO] product adopted:", sourceID.Hex(), "->", product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"product": product})
	}
}
