package controllers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/ShopFox/internal/pkg/checkout"
	"github.com/ManuelReschke/ShopFox/internal/pkg/discounts"
	"github.com/ManuelReschke/ShopFox/internal/pkg/payments"
)

// CheckoutController serves the storefront checkout API.
type CheckoutController struct {
	creator   *checkout.Creator
	status    *checkout.StatusReader
	discounts *discounts.Validator
	validate  *validator.Validate
}

// NewCheckoutController creates the checkout API controller
func NewCheckoutController(creator *checkout.Creator, status *checkout.StatusReader, validator *discounts.Validator) *CheckoutController {
	return &CheckoutController{
		creator:   creator,
		status:    status,
		discounts: validator,
		validate:  newRequestValidator(),
	}
}

func newRequestValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// HandleCreatePendingOrder prices the cart and returns the reference, charge
// and integrity signature the payment widget needs.
func (cc *CheckoutController) HandleCreatePendingOrder(c *fiber.Ctx) error {
	var req checkout.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Invalid JSON body"})
	}

	result, err := cc.creator.Create(c.UserContext(), req)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": err.Error()})
		case errors.Is(err, payments.ErrAmountMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "amount_mismatch", "message": "Subtotal does not match the cart"})
		case discounts.IsRejection(err):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid_discount", "message": err.Error()})
		case errors.Is(err, checkout.ErrOrderRefCollision):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "order_ref_collision", "message": "Please retry"})
		default:
			log.Errorw("[Checkout] failed to create pending order", "provider", req.Provider, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create order"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// HandlePendingOrderStatus reports whether the payment for ref was confirmed.
func (cc *CheckoutController) HandlePendingOrderStatus(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Params("ref"))
	if ref == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Missing order reference"})
	}

	status, err := cc.status.Lookup(c.UserContext(), ref)
	if err != nil {
		if errors.Is(err, checkout.ErrUnknownOrder) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		log.Errorw("[Checkout] status lookup failed", "order_ref", ref, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}
	return c.JSON(status)
}

type validateDiscountRequest struct {
	Code     string          `json:"code" validate:"required,max=64"`
	Subtotal decimal.Decimal `json:"subtotal"`
	UserID   *string         `json:"user_id,omitempty" validate:"omitempty,max=64"`
}

// HandleValidateDiscount previews a discount code for the current cart.
func (cc *CheckoutController) HandleValidateDiscount(c *fiber.Ctx) error {
	var req validateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "Invalid JSON body"})
	}
	if err := cc.validate.Struct(req); err != nil || req.Subtotal.IsNegative() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request", "message": "code and a non-negative subtotal are required"})
	}

	v, err := cc.discounts.Validate(c.UserContext(), strings.TrimSpace(req.Code), req.Subtotal, req.UserID)
	if err != nil {
		if discounts.IsRejection(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"valid": false, "error": "invalid_discount", "message": err.Error()})
		}
		log.Errorw("[Checkout] discount validation failed", "code", req.Code, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to validate discount"})
	}

	return c.JSON(fiber.Map{
		"valid":           true,
		"code":            v.Code.Code,
		"discount_type":   v.Code.DiscountType,
		"discount_amount": v.Amount,
	})
}
