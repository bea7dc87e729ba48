package handlers

import (
	"errors"
	"testing"

	"storefront/internal/models"
)

func TestResolveCouponEmptyCodeMeansNoDiscount(t *testing.T) {
	result, err := resolveCoupon(couponInput{Code: "", Subtotal: 200}, "WELCOME10", 10)
	if err != nil {
		t.Fatalf("empty coupon must not error: %v", err)
	}
	if result.Applied || result.Discount != 0 {
		t.Fatalf("expected no discount, got %+v", result)
	}
}

func TestResolveCouponMatchesCaseInsensitively(t *testing.T) {
	result, err := resolveCoupon(couponInput{Code: " welcome10 ", Subtotal: 200}, "WELCOME10", 10)
	if err != nil {
		t.Fatalf("coupon resolution failed: %v", err)
	}
	if !result.Applied || result.Discount != 10 {
		t.Fatalf("expected 10 discount, got %+v", result)
	}
	if result.Code != "WELCOME10" {
		t.Fatalf("expected canonical code, got %q", result.Code)
	}
}

func TestResolveCouponRejectsUnknownCode(t *testing.T) {
	_, err := resolveCoupon(couponInput{Code: "SAVE50", Subtotal: 200}, "WELCOME10", 10)
	if !errors.Is(err, errUnknownCoupon) {
		t.Fatalf("expected unknown coupon error, got %v", err)
	}
}

func TestResolveCouponDiscountCappedAtSubtotal(t *testing.T) {
	result, err := resolveCoupon(couponInput{Code: "WELCOME10", Subtotal: 6}, "WELCOME10", 10)
	if err != nil {
		t.Fatalf("coupon resolution failed: %v", err)
	}
	if result.Discount != 6 {
		t.Fatalf("expected discount capped at 6, got %v", result.Discount)
	}
}

func TestOrderTotalMath(t *testing.T) {
	items := []models.OrderItem{
		{Price: 25, Quantity: 2},
		{Price: 10, Quantity: 3},
	}

	if got := orderSubtotal(items); got != 80 {
		t.Fatalf("expected subtotal 80, got %v", got)
	}

	// 80 + 40 fee - 10 discount
	if got := orderTotal(items, 40, 10); got != 110 {
		t.Fatalf("expected total 110, got %v", got)
	}

	// total never drops below the delivery fee
	if got := orderTotal(items, 40, 500); got != 40 {
		t.Fatalf("expected floored total 40, got %v", got)
	}
}
