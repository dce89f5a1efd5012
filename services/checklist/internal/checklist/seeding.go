package checklist

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const seedApplication = "checklist-inventory"

type inventorySeed struct {
	Items     []itemSeed     `yaml:"inventory"`
	Templates []templateSeed `yaml:"templates"`
}

type itemSeed struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Unit     string `yaml:"unit"`
	Stock    int    `yaml:"stock"`
	MinStock int    `yaml:"min_stock"`
}

type templateSeed struct {
	Name        string             `yaml:"name"`
	EventType   string             `yaml:"event_type"`
	Description string             `yaml:"description"`
	Items       []templateItemSeed `yaml:"items"`
}

type templateItemSeed struct {
	Item     string `yaml:"item"`
	Quantity int    `yaml:"quantity"`
	Notes    string `yaml:"notes"`
}

func loadInventorySeed(fsys fs.FS) (*inventorySeed, error) {
	data, err := fs.ReadFile(fsys, "seed.yaml")
	if err != nil {
		return nil, fmt.Errorf("read seed.yaml: %w", err)
	}
	var doc inventorySeed
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed.yaml: %w", err)
	}
	return &doc, nil
}

// seedInventory creates the items then the templates, which name items by their seed name.
func seedInventory(ctx context.Context, service *Service, doc *inventorySeed) error {
	byName := map[string]uuid.UUID{}
	for _, is := range doc.Items {
		item, err := service.CreateInventoryItem(ctx, InventoryInput{
			Name:          is.Name,
			Category:      is.Category,
			Unit:          is.Unit,
			StockQuantity: is.Stock,
			MinStock:      is.MinStock,
		})
		if err != nil {
			return fmt.Errorf("seed inventory item %s: %w", is.Name, err)
		}
		byName[is.Name] = item.ID
	}
	for _, ts := range doc.Templates {
		in := TemplateInput{Name: ts.Name, EventType: ts.EventType, Description: ts.Description}
		for _, it := range ts.Items {
			id, ok := byName[it.Item]
			if !ok {
				return fmt.Errorf("seed template %s: unknown item %s", ts.Name, it.Item)
			}
			in.Items = append(in.Items, TemplateItem{InventoryItemID: id, Quantity: it.Quantity, Notes: it.Notes})
		}
		if _, err := service.CreateTemplate(ctx, in); err != nil {
			return fmt.Errorf("seed template %s: %w", ts.Name, err)
		}
	}
	return nil
}

// SeedInventory inserts the base equipment and templates once.
func SeedInventory(ctx context.Context, tracker seed.Tracker, service *Service, fsys fs.FS, logger apt.Logger) error {
	doc, err := loadInventorySeed(fsys)
	if err != nil {
		return err
	}

	defs := []seed.Seed{{
		ID:          "2025-03-01_checklist_inventory",
		Description: "Base equipment inventory and checklist templates",
		Run: func(ctx context.Context) error {
			if err := seedInventory(ctx, service, doc); err != nil {
				return err
			}
			logger.Info("checklist inventory seeded", "items", len(doc.Items), "templates", len(doc.Templates))
			return nil
		},
	}}

	return seed.Apply(ctx, tracker, defs, seedApplication)
}
