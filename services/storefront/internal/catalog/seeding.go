package catalog

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"gopkg.in/yaml.v3"
)

const seedApplication = "storefront-catalog"

type catalogSeed struct {
	Categories []categorySeed `yaml:"categories"`
}

type categorySeed struct {
	Name     string        `yaml:"name"`
	Order    int           `yaml:"order"`
	Products []productSeed `yaml:"products"`
}

type productSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Ingredients string `yaml:"ingredients"`
	Price       string `yaml:"price"`
	Calories    int    `yaml:"calories"`
	Vegetarian  bool   `yaml:"vegetarian"`
	Vegan       bool   `yaml:"vegan"`
	GlutenFree  bool   `yaml:"gluten_free"`
	MinOrder    int    `yaml:"min_order_quantity"`
	Department  string `yaml:"department"`
}

func loadCatalogSeed(fsys fs.FS) (*catalogSeed, error) {
	data, err := fs.ReadFile(fsys, "seed.yaml")
	if err != nil {
		return nil, fmt.Errorf("read seed.yaml: %w", err)
	}
	var doc catalogSeed
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed.yaml: %w", err)
	}
	return &doc, nil
}

// SeedCatalog inserts the demo categories and products once.
func SeedCatalog(ctx context.Context, tracker seed.Tracker, service *Service, fsys fs.FS, logger apt.Logger) error {
	doc, err := loadCatalogSeed(fsys)
	if err != nil {
		return err
	}

	defs := []seed.Seed{{
		ID:          "2025-01-10_storefront_catalog",
		Description: "Demo lunch box catalog",
		Run: func(ctx context.Context) error {
			for _, cs := range doc.Categories {
				cat, err := service.CreateCategory(ctx, CategoryInput{Name: cs.Name, Order: cs.Order})
				if err != nil {
					return err
				}
				for _, ps := range cs.Products {
					_, err := service.CreateProduct(ctx, ProductInput{
						Name:             ps.Name,
						CategoryID:       cat.ID.String(),
						Description:      ps.Description,
						Ingredients:      ps.Ingredients,
						Price:            ps.Price,
						Calories:         ps.Calories,
						Vegetarian:       ps.Vegetarian,
						Vegan:            ps.Vegan,
						GlutenFree:       ps.GlutenFree,
						MinOrderQuantity: ps.MinOrder,
						Department:       ps.Department,
					})
					if err != nil {
						return fmt.Errorf("seed product %s: %w", ps.Name, err)
					}
				}
			}
			logger.Info("catalog seeded", "categories", len(doc.Categories))
			return nil
		},
	}}

	return seed.Apply(ctx, tracker, defs, seedApplication)
}
