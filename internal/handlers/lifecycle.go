package handlers

import (
	"context"
	"errors"
	"fmt"
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
   TRANSITION RULES
========================= */

type transitionError struct {
	From models.DeliveryStatus
	To   models.DeliveryStatus
}

func (e transitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

var (
	errPartnerRequired = errors.New("order has no delivery partner assigned")
	errOrderClosed     = errors.New("order payment failed or order was cancelled")
)

// commerciallyOpen reports whether the commercial status still allows the
// fulfillment flow to confirm the order. Failed or cancelled payments must
// not be erased by accept or assignment.
func commerciallyOpen(s models.OrderStatus) bool {
	return s == models.OrderPending || s == models.OrderConfirmed
}

// openStatuses is the filter form of commerciallyOpen.
func openStatuses() bson.M {
	return bson.M{"$in": []models.OrderStatus{models.OrderPending, models.OrderConfirmed}}
}

// applyAccept moves a freshly placed order into the confirmed stage. The
// commercial status follows along so the pair stays inside the joint table.
func applyAccept(o *models.Order) error {
	if !commerciallyOpen(o.Status) {
		return errOrderClosed
	}
	if o.DeliveryStatus != models.DeliveryPending {
		return transitionError{From: o.DeliveryStatus, To: models.DeliveryConfirmed}
	}
	o.DeliveryStatus = models.DeliveryConfirmed
	o.Status = models.OrderConfirmed
	return nil
}

// applyMarkPreparing requires an assigned partner before the kitchen or
// warehouse starts working on the order.
func applyMarkPreparing(o *models.Order) error {
	if o.DeliveryStatus != models.DeliveryConfirmed {
		return transitionError{From: o.DeliveryStatus, To: models.DeliveryPreparing}
	}
	if !o.Assigned() {
		return errPartnerRequired
	}
	o.DeliveryStatus = models.DeliveryPreparing
	return nil
}

func applyDispatch(o *models.Order) error {
	if o.DeliveryStatus != models.DeliveryPreparing {
		return transitionError{From: o.DeliveryStatus, To: models.DeliveryOutForDelivery}
	}
	o.DeliveryStatus = models.DeliveryOutForDelivery
	return nil
}

// applyComplete marks the order delivered. Completing an already delivered
// order is a no-op so partner double-taps never error.
func applyComplete(o *models.Order, now time.Time) error {
	if o.DeliveryStatus == models.DeliveryDelivered {
		return nil
	}
	o.DeliveryStatus = models.DeliveryDelivered
	o.Status = models.OrderDelivered
	o.DeliveredAt = &now
	return nil
}

/* =========================
   LIFECYCLE HANDLERS
========================= */

// AcceptOrder confirms a pending order. The guard is encoded in the update
// filter so a concurrent accept loses cleanly with a 409 instead of
// overwriting a later stage.
func AcceptOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /retailer/orders/:id/accept"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{
				"_id":            orderID,
				"deliveryStatus": models.DeliveryPending,
				"status":         openStatuses(),
			},
			bson.M{"$set": bson.M{
				"deliveryStatus": models.DeliveryConfirmed,
				"status":         models.OrderConfirmed,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			rejectStaleTransition(c, db, ctx, route, orderID, applyAccept)
			return
		}

		log.Println("[ORDER] [INFO] order accepted:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"deliveryStatus": models.DeliveryConfirmed})
	}
}

// MarkPreparing moves a confirmed, partner-assigned order into preparation.
func MarkPreparing(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /retailer/orders/:id/prepare"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{
				"_id":               orderID,
				"deliveryStatus":    models.DeliveryConfirmed,
				"deliveryPartnerId": bson.M{"$ne": nil},
			},
			bson.M{"$set": bson.M{"deliveryStatus": models.DeliveryPreparing}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			rejectStaleTransition(c, db, ctx, route, orderID, applyMarkPreparing)
			return
		}

		log.Println("[ORDER] [INFO] order preparing:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"deliveryStatus": models.DeliveryPreparing})
	}
}

// DispatchOrder hands a prepared order to its delivery partner.
func DispatchOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /retailer/orders/:id/dispatch"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{
				"_id":            orderID,
				"deliveryStatus": models.DeliveryPreparing,
			},
			bson.M{"$set": bson.M{"deliveryStatus": models.DeliveryOutForDelivery}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			rejectStaleTransition(c, db, ctx, route, orderID, applyDispatch)
			return
		}

		log.Println("[ORDER] [INFO] order out for delivery:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"deliveryStatus": models.DeliveryOutForDelivery})
	}
}

// CompleteDelivery is invoked by the delivery partner on their own orders.
// It is idempotent: completing an already delivered order returns 200 with
// the unchanged state.
func CompleteDelivery(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /partner/orders/:id/complete"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		partner, err := partnerForUser(ctx, db, userID)
		if err != nil {
			respondWithError(c, http.StatusForbidden, route, "partner profile not found")
			return
		}

		now := time.Now()
		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{
				"_id":               orderID,
				"deliveryPartnerId": partner.ID,
				"deliveryStatus":    bson.M{"$ne": models.DeliveryDelivered},
			},
			bson.M{"$set": bson.M{
				"deliveryStatus": models.DeliveryDelivered,
				"status":         models.OrderDelivered,
				"deliveredAt":    now,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if res.MatchedCount == 0 {
			// Either not this partner's order, or already delivered. The
			// latter is a success for idempotence.
			var order models.Order
			err := db.Collection("orders").FindOne(ctx, bson.M{
				"_id":               orderID,
				"deliveryPartnerId": partner.ID,
			}).Decode(&order)
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "order not found")
				return
			}
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			c.JSON(http.StatusOK, gin.H{"deliveryStatus": order.DeliveryStatus})
			return
		}

		log.Println("[ORDER] [INFO] order delivered:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"deliveryStatus": models.DeliveryDelivered, "deliveredAt": now})
	}
}

// rejectStaleTransition re-reads the order after a conditional update missed
// and replays the pure rule against the current state for a precise error.
func rejectStaleTransition(c *gin.Context, db *mongo.Database, ctx context.Context, route string, orderID primitive.ObjectID, apply func(*models.Order) error) {
	var order models.Order
	err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	if err := apply(&order); err != nil {
		respondWithError(c, http.StatusConflict, route, err.Error())
		return
	}

	// The rule allows it but the conditional update missed: a concurrent
	// caller advanced the order between our update and this read.
	respondWithError(c, http.StatusConflict, route, "order changed concurrently, retry")
}
