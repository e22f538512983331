package cart

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("item_id is required")
)

// DefaultQuantity is used when the quantity widget is missing or unreadable.
const DefaultQuantity = 1

var validate = validator.New(validator.WithRequiredStructEnabled())

// ItemRequest asks the server to add Quantity units of ItemID to the
// session cart. Built fresh for every click.
type ItemRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"min=1"`
}

// NewItemRequest validates and builds an ItemRequest.
func NewItemRequest(itemID string, quantity int) (ItemRequest, error) {
	req := ItemRequest{ItemID: strings.TrimSpace(itemID), Quantity: quantity}
	if err := req.Validate(); err != nil {
		return ItemRequest{}, err
	}
	return req, nil
}

// Validate maps struct validation failures onto the package's sentinel
// errors.
func (r ItemRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "ItemID":
			return ErrInvalidProduct
		case "Quantity":
			return ErrInvalidQuantity
		}
	}
	return err
}

// ParseQuantity reads a quantity widget value. Anything that is not a
// positive integer falls back to DefaultQuantity.
func ParseQuantity(raw string) int {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q < 1 {
		return DefaultQuantity
	}
	return q
}
