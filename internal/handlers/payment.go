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

// Payment capture itself happens at the external processor; these endpoints
// only record its outcome. Both are conditional on paymentStatus=pending so
// a late or duplicated callback cannot rewrite a settled order, and both
// honor the delivery state so the status pair stays inside the joint table.

var (
	errPaymentSettled     = errors.New("payment already settled")
	errOrderInFulfillment = errors.New("order already in fulfillment")
)

// applyPaymentConfirm records a successful capture. An order that was
// already delivered keeps its delivered commercial status; the payment is
// recorded without downgrading it.
func applyPaymentConfirm(o *models.Order) error {
	if o.PaymentStatus != models.PaymentPending {
		return errPaymentSettled
	}
	o.PaymentStatus = models.PaymentPaid
	if !o.DeliveryStatus.Terminal() {
		o.Status = models.OrderConfirmed
	}
	return nil
}

// applyPaymentFail records a failed capture. Only possible while the order
// is still at the pending delivery stage: once fulfillment has started,
// payment_failed is no longer a valid pairing.
func applyPaymentFail(o *models.Order) error {
	if o.PaymentStatus != models.PaymentPending {
		return errPaymentSettled
	}
	if o.DeliveryStatus != models.DeliveryPending {
		return errOrderInFulfillment
	}
	o.PaymentStatus = models.PaymentFailed
	o.Status = models.OrderPaymentFailed
	return nil
}

// ConfirmPayment marks an online order as paid. Delivery state decides the
// commercial status: not-yet-delivered orders become confirmed, delivered
// ones stay delivered.
func ConfirmPayment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/payment/confirm"
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

		base := bson.M{
			"_id":           orderID,
			"customerId":    userID,
			"paymentMethod": models.PaymentMethodOnline,
			"paymentStatus": models.PaymentPending,
		}

		filter := bson.M{"deliveryStatus": bson.M{"$ne": models.DeliveryDelivered}}
		for k, v := range base {
			filter[k] = v
		}
		res, err := db.Collection("orders").UpdateOne(ctx, filter,
			bson.M{"$set": bson.M{
				"paymentStatus": models.PaymentPaid,
				"status":        models.OrderConfirmed,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount > 0 {
			log.Println("[PAYMENT] [INFO] payment confirmed for order:", orderID.Hex())
			c.JSON(http.StatusOK, gin.H{
				"paymentStatus": models.PaymentPaid,
				"status":        models.OrderConfirmed,
			})
			return
		}

		// Delivered while payment was pending: record the payment but keep
		// the delivered commercial status.
		filter = bson.M{"deliveryStatus": models.DeliveryDelivered}
		for k, v := range base {
			filter[k] = v
		}
		res, err = db.Collection("orders").UpdateOne(ctx, filter,
			bson.M{"$set": bson.M{"paymentStatus": models.PaymentPaid}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount > 0 {
			log.Println("[PAYMENT] [INFO] payment confirmed for delivered order:", orderID.Hex())
			c.JSON(http.StatusOK, gin.H{
				"paymentStatus": models.PaymentPaid,
				"status":        models.OrderDelivered,
			})
			return
		}

		rejectStalePayment(c, db, ctx, route, orderID, userID, applyPaymentConfirm)
	}
}

// FailPayment records a failed capture. Rejected once fulfillment has
// started: a confirmed-or-later order cannot fall back to payment_failed.
func FailPayment(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/payment/fail"
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

		res, err := db.Collection("orders").UpdateOne(ctx,
			bson.M{
				"_id":            orderID,
				"customerId":     userID,
				"paymentMethod":  models.PaymentMethodOnline,
				"paymentStatus":  models.PaymentPending,
				"deliveryStatus": models.DeliveryPending,
			},
			bson.M{"$set": bson.M{
				"paymentStatus": models.PaymentFailed,
				"status":        models.OrderPaymentFailed,
			}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			rejectStalePayment(c, db, ctx, route, orderID, userID, applyPaymentFail)
			return
		}

		log.Println("[PAYMENT] [INFO] payment failure recorded for order:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"paymentStatus": models.PaymentFailed,
			"status":        models.OrderPaymentFailed,
		})
	}
}

// rejectStalePayment re-reads the order after a conditional update missed
// and replays the pure payment rule for a precise error.
func rejectStalePayment(c *gin.Context, db *mongo.Database, ctx context.Context, route string, orderID, userID primitive.ObjectID, apply func(*models.Order) error) {
	var order models.Order
	err := db.Collection("orders").FindOne(ctx, bson.M{
		"_id":        orderID,
		"customerId": userID,
	}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		respondWithError(c, http.StatusNotFound, route, "order not found")
		return
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return
	}

	if order.PaymentMethod != models.PaymentMethodOnline {
		respondWithError(c, http.StatusConflict, route, "order is not an online payment")
		return
	}

	if err := apply(&order); err != nil {
		respondWithError(c, http.StatusConflict, route, err.Error())
		return
	}

	respondWithError(c, http.StatusConflict, route, "order changed concurrently, retry")
}
