package handlers

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func pendingOrder() models.Order {
	return models.Order{
		ID:             primitive.NewObjectID(),
		Status:         models.OrderPending,
		DeliveryStatus: models.DeliveryPending,
		PaymentStatus:  models.PaymentPending,
	}
}

func TestApplyAcceptOnlyFromPending(t *testing.T) {
	order := pendingOrder()
	if err := applyAccept(&order); err != nil {
		t.Fatalf("accept from pending failed: %v", err)
	}
	if order.DeliveryStatus != models.DeliveryConfirmed {
		t.Fatalf("expected confirmed, got %s", order.DeliveryStatus)
	}
	if order.Status != models.OrderConfirmed {
		t.Fatalf("expected commercial status confirmed, got %s", order.Status)
	}

	for _, from := range []models.DeliveryStatus{
		models.DeliveryConfirmed,
		models.DeliveryPreparing,
		models.DeliveryOutForDelivery,
		models.DeliveryDelivered,
	} {
		order := pendingOrder()
		order.DeliveryStatus = from
		if err := applyAccept(&order); err == nil {
			t.Fatalf("expected accept from %s to be rejected", from)
		}
	}
}

func TestApplyAcceptRejectsClosedOrder(t *testing.T) {
	// A failed or cancelled order stays in delivery status pending, but
	// accepting it would resurrect it as confirmed.
	for _, status := range []models.OrderStatus{models.OrderPaymentFailed, models.OrderCancelled} {
		order := pendingOrder()
		order.Status = status

		err := applyAccept(&order)
		if !errors.Is(err, errOrderClosed) {
			t.Fatalf("expected closed-order error for %s, got %v", status, err)
		}
		if order.Status != status || order.DeliveryStatus != models.DeliveryPending {
			t.Fatalf("rejected accept must not change the order, got %s/%s", order.Status, order.DeliveryStatus)
		}
	}
}

func TestApplyMarkPreparingRequiresPartner(t *testing.T) {
	order := pendingOrder()
	order.Status = models.OrderConfirmed
	order.DeliveryStatus = models.DeliveryConfirmed

	err := applyMarkPreparing(&order)
	if !errors.Is(err, errPartnerRequired) {
		t.Fatalf("expected partner-required error, got %v", err)
	}

	partnerID := primitive.NewObjectID()
	order.DeliveryPartnerID = &partnerID
	if err := applyMarkPreparing(&order); err != nil {
		t.Fatalf("prepare with partner failed: %v", err)
	}
	if order.DeliveryStatus != models.DeliveryPreparing {
		t.Fatalf("expected preparing, got %s", order.DeliveryStatus)
	}
}

func TestApplyDispatchOnlyFromPreparing(t *testing.T) {
	order := pendingOrder()
	order.DeliveryStatus = models.DeliveryPreparing
	if err := applyDispatch(&order); err != nil {
		t.Fatalf("dispatch from preparing failed: %v", err)
	}
	if order.DeliveryStatus != models.DeliveryOutForDelivery {
		t.Fatalf("expected out_for_delivery, got %s", order.DeliveryStatus)
	}

	order.DeliveryStatus = models.DeliveryConfirmed
	if err := applyDispatch(&order); err == nil {
		t.Fatal("expected dispatch from confirmed to be rejected")
	}
}

func TestNoTransitionAfterDelivered(t *testing.T) {
	order := pendingOrder()
	order.Status = models.OrderDelivered
	order.DeliveryStatus = models.DeliveryDelivered

	if err := applyAccept(&order); err == nil {
		t.Fatal("accept on delivered order must fail")
	}
	if err := applyMarkPreparing(&order); err == nil {
		t.Fatal("prepare on delivered order must fail")
	}
	if err := applyDispatch(&order); err == nil {
		t.Fatal("dispatch on delivered order must fail")
	}
}

func TestApplyCompleteIsIdempotent(t *testing.T) {
	order := pendingOrder()
	order.DeliveryStatus = models.DeliveryOutForDelivery
	now := time.Now()

	if err := applyComplete(&order, now); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if order.DeliveryStatus != models.DeliveryDelivered || order.Status != models.OrderDelivered {
		t.Fatalf("expected delivered/delivered, got %s/%s", order.Status, order.DeliveryStatus)
	}
	if order.DeliveredAt == nil || !order.DeliveredAt.Equal(now) {
		t.Fatal("expected deliveredAt to be set")
	}

	later := now.Add(time.Hour)
	if err := applyComplete(&order, later); err != nil {
		t.Fatalf("second complete must not error: %v", err)
	}
	if !order.DeliveredAt.Equal(now) {
		t.Fatal("second complete must leave state unchanged")
	}
}

func TestTransitionsKeepStatusPairValid(t *testing.T) {
	order := pendingOrder()
	partnerID := primitive.NewObjectID()

	steps := []func() error{
		func() error { return applyAccept(&order) },
		func() error {
			order.DeliveryPartnerID = &partnerID
			return applyMarkPreparing(&order)
		},
		func() error { return applyDispatch(&order) },
		func() error { return applyComplete(&order, time.Now()) },
	}

	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if !models.StatusPairValid(order.Status, order.DeliveryStatus) {
			t.Fatalf("step %d left invalid pair %s/%s", i, order.Status, order.DeliveryStatus)
		}
	}
}
