package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aethra/foxops/internal/auth"
	"github.com/aethra/foxops/internal/config"
	"github.com/aethra/foxops/internal/database"
	"github.com/aethra/foxops/internal/models"
	"github.com/aethra/foxops/internal/repository"
	"github.com/aethra/foxops/internal/security"
	"go.uber.org/zap"
)

func runCLI(cfg *config.Config, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "migrate":
		db := connectDB(cfg.Database, logger)
		if err := database.RunMigrations(db, logger); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		fmt.Println("Migrations complete")
	case "company":
		runCompanyCmd(ctx, cfg, logger)
	case "user":
		runUserCmd(ctx, cfg, logger)
	case "apikey":
		runAPIKeyCmd(ctx, cfg, logger)
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: foxops <command>
Commands:
  serve                                    Start server (default)
  migrate                                  Run migrations
  company list                             List companies
  company create --name= [--slug=]         Create company
  user create --company= --email= --password= [--role=] [--name=]
                                           Create dashboard user
  apikey create --company= --name=         Issue an API key (printed once)`)
}

func openRepos(cfg *config.Config, logger *zap.Logger) *repository.Repositories {
	return repository.NewRepositories(connectDB(cfg.Database, logger), cfg.Store.Timeout)
}

func runCompanyCmd(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	repos := openRepos(cfg, logger)
	switch os.Args[2] {
	case "list":
		companies, err := repos.Companies.List(ctx)
		if err != nil {
			logger.Fatal("failed to list companies", zap.Error(err))
		}
		for _, c := range companies {
			fmt.Printf("%s  %s - %s\n", c.ID, c.Slug, c.Name)
		}
	case "create":
		name := getFlag("--name")
		if name == "" {
			printUsage()
			return
		}
		slug := getFlag("--slug")
		if slug == "" {
			slug = security.Slugify(name, "-")
		}
		company := &models.Company{Name: name, Slug: slug, IsActive: true}
		if err := repos.Companies.Create(ctx, company); err != nil {
			logger.Fatal("failed to create company", zap.String("slug", slug), zap.Error(err))
		}
		fmt.Printf("Company created: %s (%s)\n", slug, company.ID)
	default:
		printUsage()
	}
}

func runUserCmd(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if len(os.Args) < 3 || os.Args[2] != "create" {
		printUsage()
		return
	}
	companySlug := getFlag("--company")
	email := strings.ToLower(getFlag("--email"))
	password := getFlag("--password")
	if companySlug == "" || email == "" || password == "" {
		printUsage()
		return
	}
	role := getFlag("--role")
	if role == "" {
		role = models.RoleOwner
	}
	if role != models.RoleOwner && role != models.RoleAdmin && role != models.RoleMember {
		logger.Fatal("role must be owner, admin or member", zap.String("role", role))
	}

	repos := openRepos(cfg, logger)
	company := mustCompany(ctx, repos, companySlug, logger)

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Fatal("failed to hash password", zap.Error(err))
	}
	user := &models.User{
		CompanyID:    &company.ID,
		Email:        email,
		PasswordHash: hash,
		FullName:     getFlag("--name"),
		Role:         role,
		IsActive:     true,
	}
	if err := repos.Users.Create(ctx, user); err != nil {
		logger.Fatal("failed to create user", zap.String("email", email), zap.Error(err))
	}
	fmt.Printf("User created: %s (%s)\n", email, role)
}

func runAPIKeyCmd(ctx context.Context, cfg *config.Config, logger *zap.Logger) {
	if len(os.Args) < 3 || os.Args[2] != "create" {
		printUsage()
		return
	}
	companySlug, name := getFlag("--company"), getFlag("--name")
	if companySlug == "" || name == "" {
		printUsage()
		return
	}

	repos := openRepos(cfg, logger)
	company := mustCompany(ctx, repos, companySlug, logger)

	manager := auth.NewAPIKeyManager(repos.APIKeys, logger)
	key, raw, err := manager.Create(ctx, company.ID, nil, auth.CreateAPIKeyInput{Name: name})
	if err != nil {
		logger.Fatal("failed to create api key", zap.Error(err))
	}
	fmt.Printf("API key %s (%s) created for %s\n", key.Name, key.KeyPrefix, company.Slug)
	fmt.Printf("Key: %s\n", raw)
	fmt.Println("Store it now, it cannot be shown again.")
}

func mustCompany(ctx context.Context, repos *repository.Repositories, slug string, logger *zap.Logger) *models.Company {
	company, err := repos.Companies.FindBySlug(ctx, slug)
	if err != nil {
		logger.Fatal("failed to load company", zap.Error(err))
	}
	if company == nil {
		logger.Fatal("company not found", zap.String("slug", slug))
	}
	return company
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if value, ok := strings.CutPrefix(arg, prefix); ok && value != "" {
			return value
		}
	}
	return ""
}
