package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	"github.com/cutdesk/cutdesk/internal/domain/model"
)

// DashboardService assembles the user's landing view.
type DashboardService struct {
	api           *apiclient.Client
	orders        *OrderService
	conversations *ConversationService
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(client *apiclient.Client, orders *OrderService, conversations *ConversationService) (*DashboardService, error) {
	if client == nil {
		return nil, errClientRequired
	}
	if orders == nil || conversations == nil {
		return nil, errors.New("orders and conversations services are required")
	}
	return &DashboardService{api: client, orders: orders, conversations: conversations}, nil
}

// Load fetches the dashboard summary, orders and conversations concurrently.
// The first failure cancels the other requests.
func (s *DashboardService) Load(ctx context.Context) (model.Dashboard, error) {
	var (
		summary json.RawMessage
		orders  []model.Order
		convs   []model.Conversation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = apiclient.GenericGet[json.RawMessage](gctx, s.api, "dashboard")
		if err != nil {
			return fmt.Errorf("load dashboard: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = s.orders.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		convs, err = s.conversations.List(gctx, ScopeUser, model.ConversationQuery{})
		return err
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}
	return model.NewDashboard(summary, orders, convs), nil
}
