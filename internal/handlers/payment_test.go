package handlers

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestPaymentConfirmOnPendingOrder(t *testing.T) {
	order := pendingOrder()
	if err := applyPaymentConfirm(&order); err != nil {
		t.Fatalf("confirm on pending order failed: %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid || order.Status != models.OrderConfirmed {
		t.Fatalf("expected paid/confirmed, got %s/%s", order.PaymentStatus, order.Status)
	}
	if !models.StatusPairValid(order.Status, order.DeliveryStatus) {
		t.Fatalf("confirm left invalid pair %s/%s", order.Status, order.DeliveryStatus)
	}
}

func TestPaymentFailOnPendingOrder(t *testing.T) {
	order := pendingOrder()
	if err := applyPaymentFail(&order); err != nil {
		t.Fatalf("fail on pending order failed: %v", err)
	}
	if order.PaymentStatus != models.PaymentFailed || order.Status != models.OrderPaymentFailed {
		t.Fatalf("expected failed/payment_failed, got %s/%s", order.PaymentStatus, order.Status)
	}
	if !models.StatusPairValid(order.Status, order.DeliveryStatus) {
		t.Fatalf("fail left invalid pair %s/%s", order.Status, order.DeliveryStatus)
	}
}

func TestPaymentFailRejectedAfterAccept(t *testing.T) {
	// Retailer accepts an unpaid order, then the capture fails. Recording
	// payment_failed at that point would pair it with a confirmed delivery
	// status, so the callback must be rejected.
	order := pendingOrder()
	if err := applyAccept(&order); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	err := applyPaymentFail(&order)
	if !errors.Is(err, errOrderInFulfillment) {
		t.Fatalf("expected in-fulfillment error, got %v", err)
	}
	if order.PaymentStatus != models.PaymentPending || order.Status != models.OrderConfirmed {
		t.Fatalf("rejected fail must not change the order, got %s/%s", order.PaymentStatus, order.Status)
	}
	if !models.StatusPairValid(order.Status, order.DeliveryStatus) {
		t.Fatalf("pair invalid after rejected fail: %s/%s", order.Status, order.DeliveryStatus)
	}
}

func TestPaymentConfirmKeepsDeliveredStatus(t *testing.T) {
	// Order fulfilled all the way to delivered while the capture was still
	// pending: confirming the payment must not downgrade the commercial
	// status back to confirmed.
	order := pendingOrder()
	partnerID := primitive.NewObjectID()
	if err := applyAccept(&order); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	order.DeliveryPartnerID = &partnerID
	if err := applyMarkPreparing(&order); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if err := applyDispatch(&order); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := applyComplete(&order, time.Now()); err != nil {
		t.Fatalf("complete failed: %v", err)
	}

	if err := applyPaymentConfirm(&order); err != nil {
		t.Fatalf("confirm on delivered order failed: %v", err)
	}
	if order.PaymentStatus != models.PaymentPaid {
		t.Fatalf("expected payment recorded, got %s", order.PaymentStatus)
	}
	if order.Status != models.OrderDelivered {
		t.Fatalf("expected status to stay delivered, got %s", order.Status)
	}
	if !models.StatusPairValid(order.Status, order.DeliveryStatus) {
		t.Fatalf("confirm left invalid pair %s/%s", order.Status, order.DeliveryStatus)
	}
}

func TestPaymentCallbacksRejectSettledPayment(t *testing.T) {
	order := pendingOrder()
	if err := applyPaymentConfirm(&order); err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}

	if err := applyPaymentConfirm(&order); !errors.Is(err, errPaymentSettled) {
		t.Fatalf("expected settled error on second confirm, got %v", err)
	}
	if err := applyPaymentFail(&order); !errors.Is(err, errPaymentSettled) {
		t.Fatalf("expected settled error on fail after confirm, got %v", err)
	}
}
