package authn

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/yaml.v3"

	"github.com/appetiteclub/catering/pkg/enums/role"
)

const authnSeedApplication = "authn"

const (
	DefaultAdminEmail    = "admin@catering.local"
	DefaultAdminPassword = "changeme-admin"
)

type seedDocument struct {
	Users []userSeed `yaml:"users"`
}

type userSeed struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Email      string `yaml:"email"`
	Password   string `yaml:"password"`
	Role       string `yaml:"role"`
	Department string `yaml:"department,omitempty"`
}

func loadUserSeeds(seedFS fs.FS) ([]userSeed, error) {
	data, err := fs.ReadFile(seedFS, "seed.yaml")
	if err != nil {
		return nil, fmt.Errorf("read seed.yaml: %w", err)
	}

	var doc seedDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode seed.yaml: %w", err)
	}
	if len(doc.Users) == 0 {
		return nil, errors.New("seed file does not contain users")
	}

	for _, u := range doc.Users {
		if !role.Valid(u.Role) {
			return nil, fmt.Errorf("seed user %s has unknown role %q", u.Email, u.Role)
		}
	}
	return doc.Users, nil
}

// BootstrapAdmin ensures the configured administrator exists.
func BootstrapAdmin(ctx context.Context, service *Service, config *apt.Config, logger apt.Logger) error {
	email := config.GetStringOrDef("auth.bootstrap.email", DefaultAdminEmail)
	password := config.GetStringOrDef("auth.bootstrap.password", DefaultAdminPassword)

	_, err := service.CreateStaff(ctx, StaffInput{
		SignUpInput: SignUpInput{
			Email:     email,
			Password:  password,
			FirstName: "Admin",
		},
		Role: role.Roles.Admin.Name,
	}, "bootstrap")
	if errors.Is(err, ErrUserExists) {
		logger.Debug("bootstrap admin already present", "email", email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	logger.Info("bootstrap admin created", "email", email)
	return nil
}

func buildUserSeeds(raw []userSeed, service *Service, logger apt.Logger) []seed.Seed {
	defs := make([]seed.Seed, 0, len(raw))
	for _, s := range raw {
		u := s
		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2025-01-10_authn_user_%s", seedIdentifier(u.Email)),
			Description: fmt.Sprintf("Ensure demo user %s (%s)", u.Email, u.Role),
			Run: func(ctx context.Context) error {
				_, err := service.CreateStaff(ctx, StaffInput{
					SignUpInput: SignUpInput{
						Email:     u.Email,
						Password:  u.Password,
						FirstName: u.FirstName,
						LastName:  u.LastName,
					},
					Role:       u.Role,
					Department: u.Department,
				}, "seed")
				if errors.Is(err, ErrUserExists) {
					logger.Debug("seed user already present", "email", u.Email)
					return nil
				}
				return err
			},
		})
	}
	return defs
}

// SeedingFunc returns the start hook that bootstraps the admin and, when demo is set,
// one user per role.
func SeedingFunc(seedCtx context.Context, service *Service, db *mongo.Database, seedFS fs.FS, demo bool, config *apt.Config, logger apt.Logger) func(context.Context) error {
	return func(context.Context) error {
		if err := BootstrapAdmin(seedCtx, service, config, logger); err != nil {
			return err
		}
		if !demo {
			return nil
		}

		users, err := loadUserSeeds(seedFS)
		if err != nil {
			return err
		}

		logger.Info("Applying authn demo seeds", "count", len(users))
		tracker := seed.NewMongoTracker(db)
		if err := seed.Apply(seedCtx, tracker, buildUserSeeds(users, service, logger), authnSeedApplication); err != nil {
			return fmt.Errorf("apply authn seeds: %w", err)
		}
		return nil
	}
}

func seedIdentifier(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	replacer := strings.NewReplacer("@", "_", ".", "_", "-", "_", "+", "_", " ", "_")
	value = replacer.Replace(value)

	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "seed"
	}
	return b.String()
}
