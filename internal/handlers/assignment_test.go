package handlers

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func availablePartner() models.DeliveryPartner {
	return models.DeliveryPartner{
		ID:          primitive.NewObjectID(),
		Name:        "Ayşe",
		VehicleType: models.VehicleScooter,
		Available:   true,
	}
}

func TestAssignmentFromPendingForcesConfirmed(t *testing.T) {
	// Assignment is not gated on accept having run first: assigning a
	// partner to a still-pending order succeeds and confirms it.
	order := pendingOrder()
	partner := availablePartner()

	if err := applyAssignment(&order, &partner); err != nil {
		t.Fatalf("assignment failed: %v", err)
	}
	if order.DeliveryStatus != models.DeliveryConfirmed {
		t.Fatalf("expected forced confirmed, got %s", order.DeliveryStatus)
	}
	if order.Status != models.OrderConfirmed {
		t.Fatalf("expected commercial status confirmed, got %s", order.Status)
	}
	if !order.Assigned() || *order.DeliveryPartnerID != partner.ID {
		t.Fatal("expected partner to be bound to the order")
	}
	if partner.Available {
		t.Fatal("expected partner availability to flip to false")
	}
}

func TestSecondAssignmentRejected(t *testing.T) {
	order := pendingOrder()
	first := availablePartner()
	second := availablePartner()

	if err := applyAssignment(&order, &first); err != nil {
		t.Fatalf("first assignment failed: %v", err)
	}

	err := applyAssignment(&order, &second)
	if !errors.Is(err, errAlreadyAssigned) {
		t.Fatalf("expected already-assigned error, got %v", err)
	}
	if *order.DeliveryPartnerID != first.ID {
		t.Fatal("second assignment must not replace the first partner")
	}
	if !second.Available {
		t.Fatal("rejected assignment must not consume the partner")
	}
}

func TestAssignmentRejectsUnavailablePartner(t *testing.T) {
	order := pendingOrder()
	partner := availablePartner()
	partner.Available = false

	err := applyAssignment(&order, &partner)
	if !errors.Is(err, errPartnerUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if order.Assigned() {
		t.Fatal("order must remain unassigned")
	}
}

func TestAssignmentRejectsDeliveredOrder(t *testing.T) {
	order := pendingOrder()
	order.Status = models.OrderDelivered
	order.DeliveryStatus = models.DeliveryDelivered
	partner := availablePartner()

	err := applyAssignment(&order, &partner)
	if !errors.Is(err, errOrderFinished) {
		t.Fatalf("expected finished-order error, got %v", err)
	}
	if !partner.Available {
		t.Fatal("rejected assignment must not consume the partner")
	}
}

func TestAssignmentRejectsClosedOrder(t *testing.T) {
	for _, status := range []models.OrderStatus{models.OrderPaymentFailed, models.OrderCancelled} {
		order := pendingOrder()
		order.Status = status
		partner := availablePartner()

		err := applyAssignment(&order, &partner)
		if !errors.Is(err, errOrderClosed) {
			t.Fatalf("expected closed-order error for %s, got %v", status, err)
		}
		if order.Assigned() || order.Status != status {
			t.Fatalf("rejected assignment must not change the order, got %s", order.Status)
		}
		if !partner.Available {
			t.Fatal("rejected assignment must not consume the partner")
		}
	}
}

func TestAssignmentWorksMidFlow(t *testing.T) {
	// Assigning after accept is equally allowed; the forced confirmed
	// write is then a no-op status-wise.
	order := pendingOrder()
	if err := applyAccept(&order); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	partner := availablePartner()
	if err := applyAssignment(&order, &partner); err != nil {
		t.Fatalf("assignment after accept failed: %v", err)
	}
	if order.DeliveryStatus != models.DeliveryConfirmed {
		t.Fatalf("expected confirmed, got %s", order.DeliveryStatus)
	}
}
