// Package http exposes the ordering use cases over a JSON REST API built on
// echo.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"ordering/internal/core/application/usecases/commands"
	"ordering/internal/core/application/usecases/queries"
	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type (
	PlaceOrderHandler interface {
		Handle(ctx context.Context, cmd commands.PlaceOrderCommand) (*order.Order, error)
	}

	CancelOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CancelOrderCommand) (*order.Order, error)
	}

	AcceptOrderHandler interface {
		Handle(ctx context.Context, cmd commands.AcceptOrderCommand) (*order.Order, error)
	}

	CompleteOrderHandler interface {
		Handle(ctx context.Context, cmd commands.CompleteOrderCommand) (*order.Order, error)
	}

	GetOrderHandler interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
	}

	ListOrdersByCustomerHandler interface {
		Handle(ctx context.Context, query queries.ListOrdersByCustomerQuery) ([]queries.OrderSummary, error)
	}

	// IdempotencyStore remembers which order an Idempotency-Key created.
	IdempotencyStore interface {
		Reserve(ctx context.Context, key string) (bool, error)
		Lookup(ctx context.Context, key string) (orderID string, pending bool, err error)
		Complete(ctx context.Context, key, orderID string) error
		Release(ctx context.Context, key string) error
	}
)

// Handlers groups the use cases served by the API.
type Handlers struct {
	PlaceOrder           PlaceOrderHandler
	CancelOrder          CancelOrderHandler
	AcceptOrder          AcceptOrderHandler
	CompleteOrder        CompleteOrderHandler
	GetOrder             GetOrderHandler
	ListOrdersByCustomer ListOrdersByCustomerHandler
}

// Server adapts HTTP requests to commands and queries.
type Server struct {
	handlers    Handlers
	idempotency IdempotencyStore
	logger      *slog.Logger
}

// NewServer creates a server. idempotency may be nil, which disables
// Idempotency-Key handling.
func NewServer(handlers Handlers, idempotency IdempotencyStore, logger *slog.Logger) *Server {
	return &Server{
		handlers:    handlers,
		idempotency: idempotency,
		logger:      logger.With("component", "http_server"),
	}
}

// Register mounts the API routes on e.
func (s *Server) Register(e *echo.Echo) {
	api := e.Group("/api")
	api.POST("/orders", s.PlaceOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/accept", s.AcceptOrder)
	api.POST("/orders/:id/complete", s.CompleteOrder)
	api.GET("/customers/:customerId/orders", s.ListOrdersByCustomer)
}

// PlaceOrder handles POST /api/orders. With an Idempotency-Key header a
// repeated request returns the order created by the first one.
func (s *Server) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var request PlaceOrderRequest
	if err := c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body")
	}

	customerID, err := kernel.UUIDFromString(request.CustomerID)
	if err != nil {
		return s.errorResponse(c, err)
	}

	lines := make([]commands.PlaceOrderLine, 0, len(request.Lines))
	for _, line := range request.Lines {
		lines = append(lines, commands.PlaceOrderLine{
			SKU:       line.SKU,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Currency:  line.Currency,
		})
	}

	cmd, err := commands.NewPlaceOrderCommand(customerID, lines)
	if err != nil {
		return s.errorResponse(c, err)
	}

	key := strings.TrimSpace(c.Request().Header.Get(IdempotencyKeyHeader))
	if key == "" || s.idempotency == nil {
		placed, placeErr := s.handlers.PlaceOrder.Handle(ctx, cmd)
		if placeErr != nil {
			return s.errorResponse(c, placeErr)
		}
		return s.created(c, placed)
	}

	// A key that expires between Reserve and Lookup is reserved again once.
	for attempt := 0; ; attempt++ {
		reserved, err := s.idempotency.Reserve(ctx, key)
		if err != nil {
			return s.errorResponse(c, err)
		}
		if reserved {
			break
		}

		orderID, pending, lookupErr := s.idempotency.Lookup(ctx, key)
		if lookupErr != nil {
			return s.errorResponse(c, lookupErr)
		}
		if orderID != "" {
			return s.replay(c, orderID)
		}
		if pending || attempt > 0 {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Code:    http.StatusConflict,
				Message: "A request with this Idempotency-Key is still in progress",
			})
		}
	}

	placed, err := s.handlers.PlaceOrder.Handle(ctx, cmd)
	if err != nil {
		if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), key); releaseErr != nil {
			s.logger.ErrorContext(ctx, "Failed to release idempotency key", "key", key, "error", releaseErr)
		}
		return s.errorResponse(c, err)
	}

	s.completeKey(context.WithoutCancel(ctx), key, placed.ID().String())
	return s.created(c, placed)
}

// completeKey records the placed order for key, retrying once. If both
// attempts fail the reservation expires on its own pending TTL.
func (s *Server) completeKey(ctx context.Context, key, orderID string) {
	err := s.idempotency.Complete(ctx, key, orderID)
	if err == nil {
		return
	}
	if err = s.idempotency.Complete(ctx, key, orderID); err == nil {
		return
	}

	s.logger.ErrorContext(ctx, "Failed to record idempotency key, retries may place a duplicate order",
		"key", key,
		"order_id", orderID,
		"error", err,
	)
}

func (s *Server) created(c echo.Context, placed *order.Order) error {
	c.Response().Header().Set(echo.HeaderLocation, "/api/orders/"+placed.ID().String())
	return c.JSON(http.StatusCreated, orderResponseFromDomain(placed))
}

// replay answers a repeated placement with the order of the first request.
func (s *Server) replay(c echo.Context, orderID string) error {
	ctx := c.Request().Context()

	id, err := kernel.UUIDFromString(orderID)
	if err != nil {
		return s.errorResponse(c, err)
	}

	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.errorResponse(c, err)
	}

	view, err := s.handlers.GetOrder.Handle(ctx, query)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromView(view))
}

// GetOrder handles GET /api/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	id, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	query, err := queries.NewGetOrderQuery(id)
	if err != nil {
		return s.errorResponse(c, err)
	}

	view, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromView(view))
}

// CancelOrder handles POST /api/orders/:id/cancel. The body is optional.
func (s *Server) CancelOrder(c echo.Context) error {
	id, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	var request CancelOrderRequest
	if err = c.Bind(&request); err != nil {
		return badRequest(c, "Invalid request body")
	}

	cmd, err := commands.NewCancelOrderCommand(id, request.Reason)
	if err != nil {
		return s.errorResponse(c, err)
	}

	cancelled, err := s.handlers.CancelOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromDomain(cancelled))
}

// AcceptOrder handles POST /api/orders/:id/accept.
func (s *Server) AcceptOrder(c echo.Context) error {
	id, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	cmd, err := commands.NewAcceptOrderCommand(id)
	if err != nil {
		return s.errorResponse(c, err)
	}

	accepted, err := s.handlers.AcceptOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromDomain(accepted))
}

// CompleteOrder handles POST /api/orders/:id/complete.
func (s *Server) CompleteOrder(c echo.Context) error {
	id, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	cmd, err := commands.NewCompleteOrderCommand(id)
	if err != nil {
		return s.errorResponse(c, err)
	}

	completed, err := s.handlers.CompleteOrder.Handle(c.Request().Context(), cmd)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, orderResponseFromDomain(completed))
}

// ListOrdersByCustomer handles GET /api/customers/:customerId/orders with
// optional limit and offset query parameters.
func (s *Server) ListOrdersByCustomer(c echo.Context) error {
	customerID, err := kernel.UUIDFromString(c.Param("customerId"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	limit, err := intQueryParam(c, "limit")
	if err != nil {
		return badRequest(c, "limit must be an integer")
	}
	offset, err := intQueryParam(c, "offset")
	if err != nil {
		return badRequest(c, "offset must be an integer")
	}

	query, err := queries.NewListOrdersByCustomerQuery(customerID, limit, offset)
	if err != nil {
		return s.errorResponse(c, err)
	}

	summaries, err := s.handlers.ListOrdersByCustomer.Handle(c.Request().Context(), query)
	if err != nil {
		return s.errorResponse(c, err)
	}

	return c.JSON(http.StatusOK, orderSummaryResponses(summaries))
}

func intQueryParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
