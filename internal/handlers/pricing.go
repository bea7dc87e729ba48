package handlers

import (
	"errors"
	"strings"

	"storefront/internal/models"
)

var errUnknownCoupon = errors.New("unknown coupon code")

type couponInput struct {
	Code     string
	Subtotal float64
}

type couponResult struct {
	Code     string
	Discount float64
	Applied  bool
}

// resolveCoupon matches the submitted code against the configured campaign
// code. An empty code means no coupon; a wrong code is a hard error rather
// than a silent zero discount.
func resolveCoupon(input couponInput, configuredCode string, configuredDiscount float64) (couponResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return couponResult{}, nil
	}
	if code != strings.ToUpper(strings.TrimSpace(configuredCode)) {
		return couponResult{}, errUnknownCoupon
	}
	discount := configuredDiscount
	if discount > input.Subtotal {
		discount = input.Subtotal
	}
	return couponResult{Code: code, Discount: discount, Applied: true}, nil
}

// orderSubtotal sums the line items at their snapshotted unit prices.
func orderSubtotal(items []models.OrderItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	return subtotal
}

// orderTotal is the single place the invoice math lives: line items plus the
// flat delivery fee minus the coupon discount, floored at the fee so a
// discount can never push the total below what the courier costs.
func orderTotal(items []models.OrderItem, deliveryFee, discount float64) float64 {
	total := orderSubtotal(items) + deliveryFee - discount
	if total < deliveryFee {
		total = deliveryFee
	}
	return total
}
