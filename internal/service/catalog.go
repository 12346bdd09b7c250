package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cutdesk/cutdesk/internal/apiclient"
	"github.com/cutdesk/cutdesk/internal/domain/model"
	apperrors "github.com/cutdesk/cutdesk/internal/errors"
)

const servicesEntity = "services"

// CatalogService manages the editing services catalogue.
type CatalogService struct {
	api *apiclient.Client
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(client *apiclient.Client) (*CatalogService, error) {
	if client == nil {
		return nil, errClientRequired
	}
	return &CatalogService{api: client}, nil
}

// List returns services matching filters.
func (s *CatalogService) List(ctx context.Context, filters apiclient.Filters, page apiclient.Page, sort string) ([]model.Service, error) {
	out, err := apiclient.GetList[model.Service](ctx, s.api, servicesEntity, filters, page, sort)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

// Count returns the number of services.
func (s *CatalogService) Count(ctx context.Context) (int, error) {
	n, err := apiclient.GetCount(ctx, s.api, servicesEntity)
	if err != nil {
		return 0, fmt.Errorf("count services: %w", err)
	}
	return n, nil
}

// Get returns one service.
func (s *CatalogService) Get(ctx context.Context, id int) (*model.Service, error) {
	out, err := apiclient.GetItem[model.Service](ctx, s.api, servicesEntity, strconv.Itoa(id))
	if err != nil {
		return nil, fmt.Errorf("get service %d: %w", id, err)
	}
	return &out, nil
}

// Create validates and adds a service.
func (s *CatalogService) Create(ctx context.Context, in model.ServiceInput) (*model.Service, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	out, err := apiclient.GenericPost[model.Service](ctx, s.api, servicesEntity, in)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return &out, nil
}

// Update validates and replaces a service.
func (s *CatalogService) Update(ctx context.Context, id int, in model.ServiceInput) (*model.Service, error) {
	if id <= 0 {
		return nil, apperrors.ValidationField("id", "service id is required")
	}
	if err := in.Normalize(); err != nil {
		return nil, err
	}
	out, err := apiclient.GenericPut[model.Service](ctx, s.api, servicesEntity+"/"+strconv.Itoa(id), in)
	if err != nil {
		return nil, fmt.Errorf("update service %d: %w", id, err)
	}
	if out.ID == 0 {
		out.ID = id
	}
	return &out, nil
}

// Delete removes a service.
func (s *CatalogService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return apperrors.ValidationField("id", "service id is required")
	}
	if err := apiclient.DeleteItem(ctx, s.api, servicesEntity, strconv.Itoa(id)); err != nil {
		return fmt.Errorf("delete service %d: %w", id, err)
	}
	return nil
}
