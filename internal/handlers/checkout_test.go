package handlers

import (
	"errors"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func validCheckoutRequest() checkoutRequest {
	return checkoutRequest{
		Items: []checkoutItemRequest{
			{ProductID: primitive.NewObjectID().Hex(), Quantity: 2},
		},
		Address: checkoutAddressRequest{
			Title:  "Home",
			Detail: "Atatürk Cad. 12",
			Phone:  "+90 555 000 00 00",
		},
		PaymentMethod: models.PaymentMethodOnline,
	}
}

func TestBuildOrderFromRequest(t *testing.T) {
	customerID := primitive.NewObjectID()
	order, err := buildOrderFromRequest(validCheckoutRequest(), customerID)
	if err != nil {
		t.Fatalf("buildOrderFromRequest failed: %v", err)
	}

	if order.Status != models.OrderPending || order.DeliveryStatus != models.DeliveryPending {
		t.Fatalf("new order must start pending/pending, got %s/%s", order.Status, order.DeliveryStatus)
	}
	if order.PaymentStatus != models.PaymentPending {
		t.Fatalf("new order must start with pending payment, got %s", order.PaymentStatus)
	}
	if order.Assigned() {
		t.Fatal("new order must have no delivery partner")
	}
	if order.CustomerID != customerID {
		t.Fatal("customer reference not set")
	}
	if !strings.HasPrefix(order.OrderNumber, "ORD-") {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
}

func TestBuildOrderFromRequestValidation(t *testing.T) {
	customerID := primitive.NewObjectID()

	req := validCheckoutRequest()
	req.Items = nil
	if _, err := buildOrderFromRequest(req, customerID); err == nil {
		t.Fatal("expected empty items to be rejected")
	}

	req = validCheckoutRequest()
	req.Items[0].Quantity = 0
	if _, err := buildOrderFromRequest(req, customerID); err == nil {
		t.Fatal("expected zero quantity to be rejected")
	}

	req = validCheckoutRequest()
	req.Items[0].ProductID = "not-an-id"
	if _, err := buildOrderFromRequest(req, customerID); err == nil {
		t.Fatal("expected bad productId to be rejected")
	}

	req = validCheckoutRequest()
	req.PaymentMethod = "credit"
	if _, err := buildOrderFromRequest(req, customerID); err == nil {
		t.Fatal("expected unknown payment method to be rejected")
	}

	req = validCheckoutRequest()
	req.Address.Phone = "  "
	if _, err := buildOrderFromRequest(req, customerID); err == nil {
		t.Fatal("expected missing phone to be rejected")
	}
}

func TestOrderNumberForIsStable(t *testing.T) {
	id := primitive.NewObjectID()
	first := orderNumberFor(id)
	second := orderNumberFor(id)
	if first != second {
		t.Fatalf("order number must be deterministic, got %q and %q", first, second)
	}
	if len(first) != len("ORD-")+8 {
		t.Fatalf("unexpected order number length: %q", first)
	}
	if first == orderNumberFor(primitive.NewObjectID()) {
		t.Fatal("different ids must give different numbers")
	}
}

func TestEnsureStockPreCheck(t *testing.T) {
	product := models.Product{ID: primitive.NewObjectID(), Stock: 10}

	if err := ensureStock(product, 10); err != nil {
		t.Fatalf("exact stock must pass: %v", err)
	}

	err := ensureStock(product, 11)
	var stockErr outOfStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected out-of-stock error, got %v", err)
	}
	if stockErr.Available != 10 || stockErr.Requested != 11 {
		t.Fatalf("unexpected error detail: %+v", stockErr)
	}
}

func TestSequentialOrdersDrainStock(t *testing.T) {
	// stock=10; order A takes 4, order B takes 3, order C wants 5 and must
	// be rejected by the pre-check against the remaining 3.
	product := models.Product{ID: primitive.NewObjectID(), Stock: 10}

	for _, quantity := range []int{4, 3} {
		if err := ensureStock(product, quantity); err != nil {
			t.Fatalf("expected quantity %d to pass with stock %d: %v", quantity, product.Stock, err)
		}
		product.Stock -= quantity
	}

	if product.Stock != 3 {
		t.Fatalf("expected final stock 3, got %d", product.Stock)
	}

	if err := ensureStock(product, 5); err == nil {
		t.Fatal("expected third order to be rejected")
	}
}
