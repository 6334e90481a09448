package router

import (
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-hexagonal-users/config"
	userapp "github.com/oksasatya/go-hexagonal-users/internal/application"
	"github.com/oksasatya/go-hexagonal-users/internal/container"
	"github.com/oksasatya/go-hexagonal-users/internal/domain/repository"
	domainsvc "github.com/oksasatya/go-hexagonal-users/internal/domain/service"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/cache"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/memory"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/notification"
	pginfra "github.com/oksasatya/go-hexagonal-users/internal/infrastructure/postgres"
	"github.com/oksasatya/go-hexagonal-users/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-hexagonal-users/internal/interface/http"
	"github.com/oksasatya/go-hexagonal-users/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repository.UserRepository
	Service *userapp.Service
	Handler *handlers.UserHandler
}

// BuildUserRepository stacks the persistence adapters: Postgres (or memory),
// then the Redis cache, then search indexing, depending on what is wired.
func BuildUserRepository(cfg *config.Config, logger *logrus.Logger) repository.UserRepository {
	var repo repository.UserRepository
	if cfg.StorageDriver == config.StorageMemory || container.GetPGPool() == nil {
		logger.WithField("driver", config.StorageMemory).Info("user storage")
		repo = memory.NewUserRepository()
	} else {
		logger.WithField("driver", config.StoragePostgres).Info("user storage")
		repo = pginfra.NewUserRepository(container.GetPGPool())
	}
	if rdb := container.GetRedis(); rdb != nil {
		repo = cache.NewUserRepository(repo, rdb, cfg.UserCacheTTL, logger)
	}
	if idx := buildUserIndex(cfg, logger); idx != nil {
		repo = search.NewIndexingRepository(repo, idx)
	}
	return repo
}

func buildUserIndex(cfg *config.Config, logger *logrus.Logger) *search.UserIndex {
	es := container.GetES()
	if es == nil || cfg.ESUsersIndex == "" {
		return nil
	}
	return search.NewUserIndex(es, cfg.ESUsersIndex, logger)
}

// BuildNotifier returns the queue notifier when mail sending is enabled and
// a publisher is available, and a logging notifier otherwise.
func BuildNotifier(cfg *config.Config, logger *logrus.Logger) userapp.Notifier {
	if pub := container.GetRabbitPub(); cfg.MailSendEnabled && pub != nil {
		return notification.NewQueueNotifier(pub, cfg, logger)
	}
	return notification.NewLogNotifier(logger)
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	repo := BuildUserRepository(cfg, logger)
	service := userapp.NewService(repo, BuildNotifier(cfg, logger), domainsvc.NewUserDomainService())
	if idx := buildUserIndex(cfg, logger); idx != nil {
		service.Search = idx
	}

	handler := handlers.NewUserHandler(service, service, service, logger)

	return UserModuleDeps{
		Repo:    repo,
		Service: service,
		Handler: handler,
	}
}

// InitModules wires every module into the registry. Call once at startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	userDeps := buildUserDeps()
	r.Add(modules.NewUserModule(userDeps.Handler, container.GetRedis(), modules.UserRateLimit{
		Max:              cfg.CreateUserRateLimit,
		Window:           cfg.CreateUserRateWindow,
		AllowPrivateNets: cfg.Env == "development",
	}))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
