package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

type registerPartnerRequest struct {
	Name        string `json:"name" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	VehicleType string `json:"vehicleType" binding:"required"`
}

type partnerAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// RegisterPartner creates the courier profile for an authenticated delivery
// partner account. New partners start available.
func RegisterPartner(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /partner/profile"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req registerPartnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		vehicle, ok := models.NormalizeVehicleType(req.VehicleType)
		if !ok {
			respondWithError(c, http.StatusBadRequest, route, "unknown vehicle type")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("delivery_partners").CountDocuments(ctx, bson.M{"userId": userID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count > 0 {
			respondWithError(c, http.StatusConflict, route, "partner profile already exists")
			return
		}

		partner := models.DeliveryPartner{
			UserID:      userID,
			Name:        strings.TrimSpace(req.Name),
			Phone:       strings.TrimSpace(req.Phone),
			VehicleType: vehicle,
			Available:   true,
			CreatedAt:   time.Now(),
		}

		res, err := db.Collection("delivery_partners").InsertOne(ctx, partner)
		if err != nil {
			status, message := partnerInsertStatus(err)
			respondWithError(c, status, route, message)
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			partner.ID = id
		}

		log.Println("[PARTNER] [INFO] partner registered:", partner.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"partner": partner})
	}
}

// SetPartnerAvailability is the manual availability toggle. Completing a
// delivery does not flip the flag back; this endpoint is how a partner
// returns to the pool.
func SetPartnerAvailability(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /partner/availability"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req partnerAvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("delivery_partners").UpdateOne(ctx,
			bson.M{"userId": userID},
			bson.M{"$set": bson.M{"available": *req.Available}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "partner profile not found")
			return
		}

		log.Println("[PARTNER] [INFO] availability set to", *req.Available, "for user", userID.Hex())
		c.JSON(http.StatusOK, gin.H{"available": *req.Available})
	}
}

// GetPartnerOrders lists the orders assigned to the calling partner.
func GetPartnerOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /partner/orders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		partner, err := partnerForUser(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusNotFound, route, "partner profile not found")
			return
		}

		cursor, err := db.Collection("orders").Find(ctx, bson.M{"deliveryPartnerId": partner.ID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"orders": orders})
	}
}

// partnerInsertStatus maps a partner insert failure onto a response. A
// duplicate key means the phone number hit the unique index.
func partnerInsertStatus(err error) (int, string) {
	if mongo.IsDuplicateKeyError(err) {
		return http.StatusConflict, "phone already registered"
	}
	return http.StatusInternalServerError, "db error"
}

func partnerForUser(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (models.DeliveryPartner, error) {
	var partner models.DeliveryPartner
	err := db.Collection("delivery_partners").FindOne(ctx, bson.M{"userId": userID}).Decode(&partner)
	return partner, err
}
