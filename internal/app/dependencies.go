package app

import (
	"fmt"
	"io/fs"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/register"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/version"
	"github.com/vladislavdragonenkov/checkout/web"
)

// Dependencies содержит все зависимости сервера регистратора.
type Dependencies struct {
	Products domain.ProductRepository
	Orders   domain.OrderRepository
	// Outbox равен nil, если брокер событий не настроен.
	Outbox  domain.OutboxRepository
	Service *register.Service
	Health  *health.Handler
	Metrics *metrics.RegisterMetrics
	Static  fs.FS
	Logger  *log.Entry
}

// NewDependencies создаёт in-memory хранилища, сервис и probes.
func NewDependencies(cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	static, err := staticFS(cfg.StaticDir)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{
		Products: memory.NewProductRepository(),
		Orders:   memory.NewOrderRepository(),
		Health:   health.NewHandler(version.GetVersion()),
		Metrics:  metrics.NewRegisterMetrics(),
		Static:   static,
		Logger:   logger,
	}

	opts := []register.Option{
		register.WithLogger(logger.WithField("layer", "register")),
		register.WithMetrics(deps.Metrics),
	}
	if cfg.EventsDriver != EventsDriverNone && cfg.EventsDriver != "" {
		outbox := memory.NewOutboxRepository()
		deps.Outbox = outbox
		opts = append(opts, register.WithOutbox(outbox))
		deps.Health.RegisterChecker("outbox", health.NewOutboxChecker(outbox, cfg.OutboxMaxPending, cfg.OutboxMaxAge))
	}

	deps.Service = register.NewService(deps.Products, deps.Orders, opts...)
	deps.Health.RegisterChecker("store", health.NewStoreChecker(deps.Products))

	return deps, nil
}

// staticFS возвращает встроенный UI или каталог с диска.
func staticFS(dir string) (fs.FS, error) {
	if dir == "" {
		return web.FS(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}
