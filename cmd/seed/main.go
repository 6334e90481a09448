package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-hexagonal-users/config"
	userapp "github.com/oksasatya/go-hexagonal-users/internal/application"
	"github.com/oksasatya/go-hexagonal-users/internal/domain"
	domainsvc "github.com/oksasatya/go-hexagonal-users/internal/domain/service"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/notification"
	pginfra "github.com/oksasatya/go-hexagonal-users/internal/infrastructure/postgres"
	"github.com/oksasatya/go-hexagonal-users/pkg/helpers"
)

// seed inserts a demo user through the application service, so the same
// validation applies as for API requests. Welcome emails are only logged.
func main() {
	name := flag.String("name", "Demo User", "user name")
	email := flag.String("email", "demo@example.com", "user email")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	svc := userapp.NewService(
		pginfra.NewUserRepository(pool),
		notification.NewLogNotifier(logger),
		domainsvc.NewUserDomainService(),
	)

	u, err := svc.CreateUser(ctx, *name, *email)
	switch {
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		fmt.Printf("user %s already present, nothing to do\n", *email)
		return
	case err != nil:
		logger.WithError(err).Error("failed to seed user")
		os.Exit(1)
	}
	id, _ := u.ID()
	fmt.Printf("seeded user: id=%s email=%s name=%s\n", id, u.Email(), u.Name())
}
