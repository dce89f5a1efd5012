package checklist

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"
)

func (s *Service) CreateInventoryItem(ctx context.Context, in InventoryInput) (*InventoryItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	item := &InventoryItem{ID: apt.GenerateNewID(), Active: true, CreatedAt: now}
	item.Apply(in, now)
	if err := s.repos.Inventory.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("store inventory item: %w", err)
	}
	return item, nil
}

func (s *Service) GetInventoryItem(ctx context.Context, id uuid.UUID) (*InventoryItem, error) {
	item, err := s.repos.Inventory.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("inventory item: %w", ErrNotFound)
	}
	return item, nil
}

func (s *Service) ListInventory(ctx context.Context, activeOnly bool) ([]*InventoryItem, error) {
	return s.repos.Inventory.List(ctx, activeOnly)
}

func (s *Service) UpdateInventoryItem(ctx context.Context, id uuid.UUID, in InventoryInput) (*InventoryItem, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	item, err := s.GetInventoryItem(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Apply(in, s.now())
	if err := s.repos.Inventory.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("save inventory item: %w", err)
	}
	return item, nil
}

// DeactivateInventoryItem hides an item from new checklists. Existing checklists keep it.
func (s *Service) DeactivateInventoryItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.GetInventoryItem(ctx, id)
	if err != nil {
		return err
	}
	item.Active = false
	item.UpdatedAt = s.now()
	return s.repos.Inventory.Save(ctx, item)
}

func (s *Service) CreateTemplate(ctx context.Context, in TemplateInput) (*Template, error) {
	if err := s.validateTemplate(ctx, &in); err != nil {
		return nil, err
	}
	now := s.now()
	t := &Template{ID: apt.GenerateNewID(), Active: true, CreatedAt: now}
	t.Apply(in, now)
	if err := s.repos.Templates.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("store template: %w", err)
	}
	return t, nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := s.repos.Templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("template: %w", ErrNotFound)
	}
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, activeOnly bool) ([]*Template, error) {
	return s.repos.Templates.List(ctx, activeOnly)
}

func (s *Service) UpdateTemplate(ctx context.Context, id uuid.UUID, in TemplateInput) (*Template, error) {
	if err := s.validateTemplate(ctx, &in); err != nil {
		return nil, err
	}
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Apply(in, s.now())
	if err := s.repos.Templates.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}
	return t, nil
}

func (s *Service) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	t.Active = false
	t.UpdatedAt = s.now()
	return s.repos.Templates.Save(ctx, t)
}

// validateTemplate also checks that every referenced inventory item exists.
func (s *Service) validateTemplate(ctx context.Context, in *TemplateInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.InventoryItemID)
	}
	found, err := s.repos.Inventory.GetMany(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if found[id] == nil {
			return fmt.Errorf("%w: unknown inventory item %s", ErrInvalidInput, id)
		}
	}
	return nil
}
