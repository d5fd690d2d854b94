package http

import (
	"time"

	"ordering/internal/core/application/usecases/queries"
	"ordering/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

type (
	PlaceOrderLineRequest struct {
		SKU       string          `json:"sku"`
		Quantity  int             `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unitPrice"`
		Currency  string          `json:"currency"`
	}

	PlaceOrderRequest struct {
		CustomerID string                  `json:"customerId"`
		Lines      []PlaceOrderLineRequest `json:"lines"`
	}

	CancelOrderRequest struct {
		Reason string `json:"reason"`
	}

	OrderLineResponse struct {
		SKU       string `json:"sku"`
		Quantity  int    `json:"quantity"`
		UnitPrice string `json:"unitPrice"`
	}

	OrderResponse struct {
		ID         string              `json:"id"`
		CustomerID string              `json:"customerId"`
		Status     string              `json:"status"`
		Total      string              `json:"total"`
		Currency   string              `json:"currency"`
		PlacedAt   time.Time           `json:"placedAt"`
		Lines      []OrderLineResponse `json:"lines"`
	}

	OrderSummaryResponse struct {
		ID       string    `json:"id"`
		Status   string    `json:"status"`
		Total    string    `json:"total"`
		Currency string    `json:"currency"`
		PlacedAt time.Time `json:"placedAt"`
	}

	ErrorResponse struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
)

func orderResponseFromDomain(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines()))
	for _, line := range o.Lines() {
		lines = append(lines, OrderLineResponse{
			SKU:       line.SKU(),
			Quantity:  line.Quantity(),
			UnitPrice: formatAmount(line.UnitPrice().Amount()),
		})
	}

	return OrderResponse{
		ID:         o.ID().String(),
		CustomerID: o.CustomerID().String(),
		Status:     o.Status().String(),
		Total:      formatAmount(o.Total().Amount()),
		Currency:   o.Total().Currency(),
		PlacedAt:   o.PlacedAt(),
		Lines:      lines,
	}
}

func orderResponseFromView(view queries.GetOrderQueryResponse) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		lines = append(lines, OrderLineResponse{
			SKU:       line.SKU,
			Quantity:  line.Quantity,
			UnitPrice: formatAmount(line.UnitPrice),
		})
	}

	return OrderResponse{
		ID:         view.ID.String(),
		CustomerID: view.CustomerID.String(),
		Status:     view.Status,
		Total:      formatAmount(view.Total),
		Currency:   view.Currency,
		PlacedAt:   view.PlacedAt,
		Lines:      lines,
	}
}

func orderSummaryResponses(summaries []queries.OrderSummary) []OrderSummaryResponse {
	response := make([]OrderSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		response = append(response, OrderSummaryResponse{
			ID:       summary.ID.String(),
			Status:   summary.Status,
			Total:    formatAmount(summary.Total),
			Currency: summary.Currency,
			PlacedAt: summary.PlacedAt,
		})
	}
	return response
}

func formatAmount(amount decimal.Decimal) string {
	if !amount.Equal(amount.Truncate(2)) {
		return amount.String()
	}
	return amount.StringFixed(2)
}
