package manager

import (
	"context"

	"github.com/falmar/swarmkeeper/internal/model"
)

func (svc *Service) ListServices(ctx context.Context) ([]model.CatalogEntry, error) {
	return svc.store.List(ctx)
}

func (svc *Service) GetService(ctx context.Context, name string) (*model.CatalogEntry, error) {
	return svc.store.Get(ctx, name)
}

func (svc *Service) CreateService(ctx context.Context, name, description string, def model.ServiceDefinition) (*model.CatalogEntry, error) {
	if name == "" {
		return nil, model.ErrInvalidDefinition
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	return svc.store.Create(ctx, model.CatalogEntry{
		Name:        name,
		Description: description,
		Definition:  def,
	})
}

// UpdateService replaces the definition and/or description. A nil
// argument leaves that field alone.
func (svc *Service) UpdateService(ctx context.Context, name string, def *model.ServiceDefinition, description *string) (*model.CatalogEntry, error) {
	if def != nil {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}

	return svc.store.UpdateDefinition(ctx, name, def, description)
}

// DeleteService drops the catalog entry only; a running cluster service
// is left alone.
func (svc *Service) DeleteService(ctx context.Context, name string) error {
	return svc.store.Delete(ctx, name)
}
