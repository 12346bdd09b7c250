package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

const (
	userOrdersPath  = "user/orders"
	adminOrdersPath = "admin/orders"
)

var errClientRequired = errors.New("api client is required")

// OrderServiceOptions groups dependencies for OrderService.
type OrderServiceOptions struct {
	Client *apiclient.Client
	Logger *slog.Logger // optional
}

// OrderService reads and writes editing orders for users and admins.
type OrderService struct {
	api    *apiclient.Client
	logger *slog.Logger
}

// NewOrderService constructs an OrderService.
func NewOrderService(opts OrderServiceOptions) (*OrderService, error) {
	if opts.Client == nil {
		return nil, errClientRequired
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{api: opts.Client, logger: logger.With("component", "orders")}, nil
}

// List returns the signed-in user's orders.
func (s *OrderService) List(ctx context.Context) ([]model.Order, error) {
	orders, err := apiclient.GenericGet[[]model.Order](ctx, s.api, userOrdersPath)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Get returns one of the user's orders.
func (s *OrderService) Get(ctx context.Context, id string) (*model.Order, error) {
	return s.get(ctx, userOrdersPath, id)
}

// Create validates and places a new order.
func (s *OrderService) Create(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.CoupleName = strings.TrimSpace(req.CoupleName)
	req.WeddingDate = strings.TrimSpace(req.WeddingDate)
	order, err := apiclient.GenericPost[model.Order](ctx, s.api, userOrdersPath, req)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// MaterialTransferURL returns a presigned URL to upload raw material to an
// order or download the edited result.
func (s *OrderService) MaterialTransferURL(ctx context.Context, id string, dir apiclient.TransferDirection, fileName string) (apiclient.PresignedURL, error) {
	if strings.TrimSpace(id) == "" {
		return apiclient.PresignedURL{}, apperrors.ValidationField("id", "order id is required")
	}
	data := map[string]any{}
	if name := strings.TrimSpace(fileName); name != "" {
		data["fileName"] = name
	}
	u, err := apiclient.GetPresignedURL(ctx, s.api, userOrdersPath, id, dir, data)
	if err != nil {
		return apiclient.PresignedURL{}, fmt.Errorf("presigned %s url: %w", dir, err)
	}
	return u, nil
}

// AdminList returns every order matching q.
func (s *OrderService) AdminList(ctx context.Context, q model.OrderQuery) ([]model.Order, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperrors.ValidationField("status", "unknown order status "+string(q.Status))
	}
	orders, err := apiclient.GetByQuery[[]model.Order](ctx, s.api, adminOrdersPath, q.Params())
	if err != nil {
		return nil, fmt.Errorf("list admin orders: %w", err)
	}
	return orders, nil
}

// AdminGet returns any order.
func (s *OrderService) AdminGet(ctx context.Context, id string) (*model.Order, error) {
	return s.get(ctx, adminOrdersPath, id)
}

// AdminUpdate saves status, notes and delivery link.
func (s *OrderService) AdminUpdate(ctx context.Context, id string, upd model.AdminOrderUpdate) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ValidationField("id", "order id is required")
	}
	if err := upd.Validate(); err != nil {
		return err
	}
	if _, err := apiclient.GenericPatch[json.RawMessage](ctx, s.api, itemPath(adminOrdersPath, id), upd); err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "order updated", "order", id, "status", upd.Status)
	return nil
}

// AdminDelete removes an order.
func (s *OrderService) AdminDelete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.ValidationField("id", "order id is required")
	}
	if err := apiclient.GenericDelete(ctx, s.api, itemPath(adminOrdersPath, id)); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "order deleted", "order", id)
	return nil
}

func (s *OrderService) get(ctx context.Context, base, id string) (*model.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ValidationField("id", "order id is required")
	}
	order, err := apiclient.GetItem[model.Order](ctx, s.api, base, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &order, nil
}

func itemPath(base, id string) string {
	return base + "/" + escapeSegment(id)
}
