package httpapi

import (
	"io/fs"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/register"
)

// RouterOptions перечисляет зависимости HTTP-роутера.
type RouterOptions struct {
	Service *register.Service
	Health  *health.Handler
	Metrics *metrics.RegisterMetrics
	Static  fs.FS
	Logger  *log.Entry
}

// NewRouter регистрирует маршруты и оборачивает их в middleware.
func NewRouter(opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "httpapi")
	}
	api := NewAPI(opts.Service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /product", api.addProduct)
	mux.HandleFunc("GET /product", api.listProducts)
	mux.HandleFunc("DELETE /product", api.clearProducts)
	mux.HandleFunc("POST /checkout", api.recordCheckout)

	if opts.Health != nil {
		mux.Handle("GET /healthz", opts.Health)
		mux.HandleFunc("GET /readyz", opts.Health.ReadinessHandler)
		mux.HandleFunc("GET /livez", health.LivenessHandler)
	}

	if opts.Static != nil {
		mux.Handle("GET /", staticHandler(opts.Static))
	}

	return WithNoCache(WithCORS(WithRequestID(WithLogging(logger, opts.Metrics, mux))))
}
