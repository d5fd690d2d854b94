package outboxrepo

import (
	"encoding/json"
	"fmt"

	"ordering/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// Payload schemas are the public contract of the published events. Field
// names are camelCase and amounts are decimal strings.
type (
	orderLinePayload struct {
		SKU       string `json:"sku"`
		Quantity  int    `json:"quantity"`
		UnitPrice string `json:"unitPrice"`
	}

	orderPlacedPayload struct {
		OrderID    string             `json:"orderId"`
		CustomerID string             `json:"customerId"`
		Total      string             `json:"total"`
		Currency   string             `json:"currency"`
		Lines      []orderLinePayload `json:"lines"`
	}

	orderAcceptedPayload struct {
		OrderID string `json:"orderId"`
	}

	orderCancelledPayload struct {
		OrderID string `json:"orderId"`
		Reason  string `json:"reason"`
	}

	orderCompletedPayload struct {
		OrderID string `json:"orderId"`
	}
)

// encodePayload serializes an event with the schema of its variant.
func encodePayload(event order.Event) ([]byte, error) {
	var payload any

	switch e := event.(type) {
	case order.OrderPlaced:
		lines := make([]orderLinePayload, 0, len(e.Lines))
		for _, line := range e.Lines {
			lines = append(lines, orderLinePayload{
				SKU:       line.SKU(),
				Quantity:  line.Quantity(),
				UnitPrice: formatAmount(line.UnitPrice().Amount()),
			})
		}
		payload = orderPlacedPayload{
			OrderID:    e.OrderID.String(),
			CustomerID: e.CustomerID.String(),
			Total:      formatAmount(e.Total.Amount()),
			Currency:   e.Total.Currency(),
			Lines:      lines,
		}
	case order.OrderAccepted:
		payload = orderAcceptedPayload{OrderID: e.OrderID.String()}
	case order.OrderCancelled:
		payload = orderCancelledPayload{OrderID: e.OrderID.String(), Reason: e.Reason}
	case order.OrderCompleted:
		payload = orderCompletedPayload{OrderID: e.OrderID.String()}
	default:
		return nil, fmt.Errorf("unsupported event %T", event)
	}

	return json.Marshal(payload)
}

// formatAmount keeps at least two decimals and never rounds.
func formatAmount(amount decimal.Decimal) string {
	if !amount.Equal(amount.Truncate(2)) {
		return amount.String()
	}
	return amount.StringFixed(2)
}
