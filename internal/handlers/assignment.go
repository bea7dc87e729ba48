package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

/* =========================
   ASSIGNMENT RULES
========================= */

var (
	errAlreadyAssigned    = errors.New("order already has a delivery partner")
	errPartnerUnavailable = errors.New("delivery partner is not available")
	errOrderFinished      = errors.New("order is already delivered")
	errOrderNotFound      = errors.New("order not found")
)

// applyAssignment binds a partner to an order in memory. Assignment is not
// gated on the current delivery status: it forces the order to confirmed
// even when called before accept. It is gated on the absence of a prior
// assignment, on the partner being available, and on the order being
// commercially open.
func applyAssignment(o *models.Order, p *models.DeliveryPartner) error {
	if o.DeliveryStatus.Terminal() {
		return errOrderFinished
	}
	if !commerciallyOpen(o.Status) {
		return errOrderClosed
	}
	if o.Assigned() {
		return errAlreadyAssigned
	}
	if !p.Available {
		return errPartnerUnavailable
	}
	o.DeliveryPartnerID = &p.ID
	o.DeliveryStatus = models.DeliveryConfirmed
	o.Status = models.OrderConfirmed
	p.Available = false
	return nil
}

/* =========================
   ASSIGNMENT HANDLERS
========================= */

type assignPartnerRequest struct {
	PartnerID string `json:"partnerId" binding:"required"`
}

// AssignPartner binds one available delivery partner to one unassigned
// order. The order claim and the availability flip run in a single
// transaction so they commit or fail together.
func AssignPartner(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /retailer/orders/:id/assign"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req assignPartnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		partnerID, err := primitive.ObjectIDFromHex(req.PartnerID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid partnerId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			// Claim the partner first so an unavailable partner aborts
			// before the order is touched.
			res, err := db.Collection("delivery_partners").UpdateOne(sessCtx,
				bson.M{"_id": partnerID, "available": true},
				bson.M{"$set": bson.M{"available": false}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				return nil, errPartnerUnavailable
			}

			// Assignment forces deliveryStatus to confirmed regardless of
			// the current stage; the only guard is no prior assignment.
			res, err = db.Collection("orders").UpdateOne(sessCtx,
				bson.M{
					"_id":               orderID,
					"deliveryPartnerId": nil,
					"deliveryStatus":    bson.M{"$ne": models.DeliveryDelivered},
					"status":            openStatuses(),
				},
				bson.M{"$set": bson.M{
					"deliveryPartnerId": partnerID,
					"deliveryStatus":    models.DeliveryConfirmed,
					"status":            models.OrderConfirmed,
				}},
			)
			if err != nil {
				return nil, err
			}
			if res.MatchedCount == 0 {
				var order models.Order
				err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order)
				if err == mongo.ErrNoDocuments {
					return nil, errOrderNotFound
				}
				if err != nil {
					return nil, err
				}
				if order.DeliveryStatus.Terminal() {
					return nil, errOrderFinished
				}
				if !commerciallyOpen(order.Status) {
					return nil, errOrderClosed
				}
				return nil, errAlreadyAssigned
			}
			return nil, nil
		})
		if err != nil {
			switch {
			case errors.Is(err, errOrderNotFound):
				respondWithError(c, http.StatusNotFound, route, err.Error())
			case errors.Is(err, errPartnerUnavailable),
				errors.Is(err, errAlreadyAssigned),
				errors.Is(err, errOrderFinished),
				errors.Is(err, errOrderClosed):
				respondWithError(c, http.StatusConflict, route, err.Error())
			default:
				respondWithError(c, http.StatusInternalServerError, route, "db error")
			}
			return
		}

		log.Println("[ASSIGN] [INFO] partner", partnerID.Hex(), "assigned to order", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"deliveryPartnerId": partnerID.Hex(),
			"deliveryStatus":    models.DeliveryConfirmed,
		})
	}
}

// ListAvailablePartners returns partners with the availability flag set, in
// store order. No ranking is applied; the choice among them is manual.
func ListAvailablePartners(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /retailer/partners"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("delivery_partners").Find(ctx, bson.M{"available": true})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		partners := make([]models.DeliveryPartner, 0)
		if err := cursor.All(ctx, &partners); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"partners": partners})
	}
}
