package models

import "testing"

func TestDeliveryStatusForwardChain(t *testing.T) {
	chain := []DeliveryStatus{
		DeliveryPending,
		DeliveryConfirmed,
		DeliveryPreparing,
		DeliveryOutForDelivery,
		DeliveryDelivered,
	}

	for i := 0; i < len(chain)-1; i++ {
		next, ok := chain[i].Next()
		if !ok {
			t.Fatalf("expected %s to have a successor", chain[i])
		}
		if next != chain[i+1] {
			t.Fatalf("expected %s -> %s, got %s", chain[i], chain[i+1], next)
		}
	}
}

func TestDeliveredIsTerminal(t *testing.T) {
	if _, ok := DeliveryDelivered.Next(); ok {
		t.Fatal("delivered must have no successor")
	}
	if !DeliveryDelivered.Terminal() {
		t.Fatal("delivered must be terminal")
	}
}

func TestCanAdvanceToRejectsSkips(t *testing.T) {
	if DeliveryPending.CanAdvanceTo(DeliveryPreparing) {
		t.Fatal("pending must not jump straight to preparing")
	}
	if DeliveryConfirmed.CanAdvanceTo(DeliveryDelivered) {
		t.Fatal("confirmed must not jump straight to delivered")
	}
	if DeliveryOutForDelivery.CanAdvanceTo(DeliveryPending) {
		t.Fatal("no backwards transitions")
	}
}

func TestStatusPairTable(t *testing.T) {
	valid := []struct {
		status   OrderStatus
		delivery DeliveryStatus
	}{
		{OrderPending, DeliveryPending},
		{OrderConfirmed, DeliveryPending},
		{OrderPaymentFailed, DeliveryPending},
		{OrderConfirmed, DeliveryConfirmed},
		{OrderConfirmed, DeliveryPreparing},
		{OrderConfirmed, DeliveryOutForDelivery},
		{OrderDelivered, DeliveryDelivered},
	}
	for _, pair := range valid {
		if !StatusPairValid(pair.status, pair.delivery) {
			t.Fatalf("expected %s/%s to be a valid pair", pair.status, pair.delivery)
		}
	}

	invalid := []struct {
		status   OrderStatus
		delivery DeliveryStatus
	}{
		{OrderPending, DeliveryConfirmed},
		{OrderPending, DeliveryDelivered},
		{OrderPaymentFailed, DeliveryOutForDelivery},
		{OrderCancelled, DeliveryPreparing},
		{OrderDelivered, DeliveryOutForDelivery},
	}
	for _, pair := range invalid {
		if StatusPairValid(pair.status, pair.delivery) {
			t.Fatalf("expected %s/%s to be rejected", pair.status, pair.delivery)
		}
	}
}

func TestDeliveryStatusValid(t *testing.T) {
	if !DeliveryOutForDelivery.Valid() {
		t.Fatal("out_for_delivery must be a known status")
	}
	if DeliveryStatus("shipped").Valid() {
		t.Fatal("unknown status must be rejected")
	}
}
