package handlers

import (
	"context"
	"errors"
	"fmt"
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

/* =========================
   REQUEST DTOs
========================= */

type checkoutItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type checkoutAddressRequest struct {
	Title  string `json:"title" binding:"required"`
	Detail string `json:"detail" binding:"required"`
	Note   string `json:"note"`
	Phone  string `json:"phone" binding:"required"`
}

type checkoutRequest struct {
	Items         []checkoutItemRequest  `json:"items" binding:"required"`
	Address       checkoutAddressRequest `json:"address" binding:"required"`
	PaymentMethod string                 `json:"paymentMethod" binding:"required"`
	CouponCode    string                 `json:"couponCode"`
}

/* =========================
   STOCK AND NUMBERING
========================= */

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}

// ensureStock is the checkout pre-check. The decrement itself is still
// guarded by a conditional update, so this only exists to give callers a
// precise available/requested error before the write.
func ensureStock(product models.Product, requested int) error {
	if product.Stock < requested {
		return outOfStockError{
			ProductID: product.ID,
			Available: product.Stock,
			Requested: requested,
		}
	}
	return nil
}

// orderNumberFor derives the human-readable display number from the order's
// own id. The unique index on orderNumber backs it with a hard constraint.
func orderNumberFor(id primitive.ObjectID) string {
	hex := id.Hex()
	return "ORD-" + strings.ToUpper(hex[len(hex)-8:])
}

/* =========================
   CHECKOUT
========================= */

// Checkout creates the order. Product load, stock pre-check, conditional
// stock decrement and the order insert all run in one transaction: either
// the order exists with its stock taken, or nothing happened.
func Checkout(db *mongo.Database, deliveryFee float64, couponCode string, couponDiscount float64) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		order, err := buildOrderFromRequest(req, userID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
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
			calculatedItems := make([]models.OrderItem, 0, len(order.Items))

			for _, item := range order.Items {
				var product models.Product
				err := db.Collection("products").FindOne(
					sessCtx,
					bson.M{
						"_id":       item.ProductID,
						"isDeleted": bson.M{"$ne": true},
					},
				).Decode(&product)
				if err == mongo.ErrNoDocuments {
					return nil, productNotFoundError{ProductID: item.ProductID}
				}
				if err != nil {
					return nil, err
				}

				if err := ensureStock(product, item.Quantity); err != nil {
					return nil, err
				}

				calculatedItems = append(calculatedItems, models.OrderItem{
					ProductID: item.ProductID,
					Name:      product.Name,
					Price:     product.Price,
					Quantity:  item.Quantity,
				})

				filter := bson.M{
					"_id":       item.ProductID,
					"isDeleted": bson.M{"$ne": true},
					"stock":     bson.M{"$gte": item.Quantity},
				}
				update := bson.M{"$inc": bson.M{"stock": -item.Quantity}}

				res, err := db.Collection("products").UpdateOne(sessCtx, filter, update)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					return nil, outOfStockError{
						ProductID: item.ProductID,
						Available: product.Stock,
						Requested: item.Quantity,
					}
				}
			}

			coupon, err := resolveCoupon(
				couponInput{Code: order.CouponCode, Subtotal: orderSubtotal(calculatedItems)},
				couponCode,
				couponDiscount,
			)
			if err != nil {
				return nil, err
			}

			order.Items = calculatedItems
			order.CouponCode = coupon.Code
			order.DiscountAmount = coupon.Discount
			order.DeliveryFee = deliveryFee
			order.TotalPrice = orderTotal(calculatedItems, deliveryFee, coupon.Discount)

			_, err = db.Collection("orders").InsertOne(sessCtx, order)
			return nil, err
		})
		if err != nil {
			var stockErr outOfStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr productNotFoundError
			if errors.As(err, &notFoundErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "product not found",
					"productId": notFoundErr.ProductID.Hex(),
				})
				return
			}
			if errors.Is(err, errUnknownCoupon) {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order created:", order.OrderNumber, "for user", userID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"totalPrice":  order.TotalPrice,
			"message":     "order created",
		})
	}
}

/* =========================
   BUILD ORDER
========================= */

func buildOrderFromRequest(req checkoutRequest, customerID primitive.ObjectID) (models.Order, error) {
	if len(req.Items) == 0 {
		return models.Order{}, errors.New("at least one item is required")
	}

	if req.PaymentMethod != models.PaymentMethodOnline && req.PaymentMethod != models.PaymentMethodOffline {
		return models.Order{}, errors.New("invalid payment method")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			return models.Order{}, errors.New("invalid productId")
		}
		if item.Quantity <= 0 {
			return models.Order{}, errors.New("quantity must be greater than zero")
		}
		items = append(items, models.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	phone := strings.TrimSpace(req.Address.Phone)
	if phone == "" {
		return models.Order{}, errors.New("contact phone is required")
	}

	id := primitive.NewObjectID()
	order := models.Order{
		ID:          id,
		OrderNumber: orderNumberFor(id),
		CustomerID:  customerID,
		Items:       items,
		Address: models.DeliveryAddress{
			Title:  strings.TrimSpace(req.Address.Title),
			Detail: strings.TrimSpace(req.Address.Detail),
			Note:   strings.TrimSpace(req.Address.Note),
			Phone:  phone,
		},
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     models.PaymentPending,
		Status:            models.OrderPending,
		DeliveryStatus:    models.DeliveryPending,
		DeliveryPartnerID: nil,
		CouponCode:        strings.TrimSpace(req.CouponCode),
		CreatedAt:         time.Now(),
	}

	if !models.StatusPairValid(order.Status, order.DeliveryStatus) {
		return models.Order{}, fmt.Errorf("invalid initial status pair")
	}

	return order, nil
}

/* =========================
   CANCEL PENDING ORDER
========================= */

// CancelOrder removes an order the customer abandoned before paying. The
// delete and the restock of every line item run in one transaction, so a
// cancelled order never leaks reserved stock.
func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders/:id/cancel"
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

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var order models.Order
			err := db.Collection("orders").FindOne(sessCtx, bson.M{
				"_id":            orderID,
				"customerId":     userID,
				"status":         models.OrderPending,
				"paymentStatus":  models.PaymentPending,
				"deliveryStatus": models.DeliveryPending,
			}).Decode(&order)
			if err == mongo.ErrNoDocuments {
				return nil, errOrderNotCancellable
			}
			if err != nil {
				return nil, err
			}

			for _, item := range order.Items {
				_, err := db.Collection("products").UpdateOne(sessCtx,
					bson.M{"_id": item.ProductID},
					bson.M{"$inc": bson.M{"stock": item.Quantity}},
				)
				if err != nil {
					return nil, err
				}
			}

			_, err = db.Collection("orders").DeleteOne(sessCtx, bson.M{"_id": orderID})
			return nil, err
		})
		if err != nil {
			if errors.Is(err, errOrderNotCancellable) {
				respondWithError(c, http.StatusConflict, route, err.Error())
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order cancelled and restocked:", orderID.Hex())
		c.JSON(http.StatusOK, gin.H{"message": "order cancelled"})
	}
}

var errOrderNotCancellable = errors.New("order cannot be cancelled")
