package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/board"
	"github.com/vladislavdragonenkov/checkout/internal/client"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/qrcode"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

type config struct {
	api             string
	poll            time.Duration
	currency        string
	qrEndpoint      string
	qrDisplay       time.Duration
	successDisplay  time.Duration
	recordOrders    bool
	consistentClear bool
	qrOut           string
	metricsAddr     string
	logLevel        string
}

func parseConfig(args []string) (config, error) {
	var cfg config

	fs := flag.NewFlagSet("checkout-board", flag.ContinueOnError)
	fs.StringVar(&cfg.api, "api", envOr("CHECKOUT_API", "http://localhost:3000"), "checkout server base URL (fallback: CHECKOUT_API)")
	fs.DurationVar(&cfg.poll, "poll", board.DefaultPollInterval, "poll interval")
	fs.StringVar(&cfg.currency, "currency", board.DefaultCurrency, "currency shown in labels and QR text")
	fs.StringVar(&cfg.qrEndpoint, "qr-endpoint", qrcode.DefaultEndpoint, "QR image generator endpoint")
	fs.DurationVar(&cfg.qrDisplay, "qr-display", board.DefaultQRDisplay, "how long the payment QR is shown")
	fs.DurationVar(&cfg.successDisplay, "success-display", board.DefaultSuccessDisplay, "how long the success screen is shown")
	fs.BoolVar(&cfg.recordOrders, "record-orders", false, "post a checkout record to /checkout")
	fs.BoolVar(&cfg.consistentClear, "consistent-clear", false, "clear products only if the list did not change during checkout")
	fs.StringVar(&cfg.qrOut, "qr-out", "", "write the payment QR image to this file")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", "", "serve board metrics on this address")
	fs.StringVar(&cfg.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	if strings.TrimSpace(cfg.api) == "" {
		return config{}, errors.New("api is required")
	}
	if cfg.poll <= 0 {
		return config{}, errors.New("poll must be > 0")
	}
	if cfg.qrDisplay <= 0 || cfg.successDisplay <= 0 {
		return config{}, errors.New("display durations must be > 0")
	}
	if strings.TrimSpace(cfg.currency) == "" {
		return config{}, errors.New("currency is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// run опрашивает сервер и читает команды из in: "checkout" запускает оплату,
// "quit" завершает работу.
func run(ctx context.Context, cfg config, in io.Reader, out io.Writer, registerer prometheus.Registerer) error {
	api, err := client.New(cfg.api, client.WithUserAgent(version.UserAgent("checkout-board")))
	if err != nil {
		return err
	}

	logger := log.WithField("component", "board")
	boardMetrics := metrics.NewBoardMetrics(registerer)

	renderer := board.NewConsoleRenderer(out,
		board.WithQROutput(cfg.qrOut),
		board.WithRendererLogger(logger.WithField("layer", "renderer")),
	)
	b := board.New(cfg.currency, renderer)

	poller := board.NewPoller(api, b,
		board.WithPollInterval(cfg.poll),
		board.WithPollerLogger(logger.WithField("layer", "poller")),
		board.WithPollerMetrics(boardMetrics),
	)
	flow := board.NewCheckoutFlow(api, qrcode.NewClient(cfg.qrEndpoint, nil), b, board.CheckoutOptions{
		QRDisplay:       cfg.qrDisplay,
		SuccessDisplay:  cfg.successDisplay,
		RecordOrder:     cfg.recordOrders,
		ConsistentClear: cfg.consistentClear,
		Logger:          logger.WithField("layer", "checkout"),
		Metrics:         boardMetrics,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = poller.Run(ctx)
	}()

	commands := make(chan string)
	go readCommands(ctx, in, commands)

	logger.WithField("api", cfg.api).Info("board started, type \"checkout\" to pay or \"quit\" to exit")

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil
		case cmd, ok := <-commands:
			if !ok {
				// stdin закрыт: работаем до сигнала
				commands = nil
				continue
			}
			switch cmd {
			case "checkout", "c":
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := flow.Run(ctx); errors.Is(err, board.ErrCheckoutInProgress) {
						logger.Info("checkout already in progress")
					}
				}()
			case "quit", "q", "exit":
				cancel()
			case "":
			default:
				_, _ = fmt.Fprintf(out, "unknown command %q\n", cmd)
			}
		}
	}
}

func readCommands(ctx context.Context, in io.Reader, commands chan<- string) {
	defer close(commands)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case commands <- strings.ToLower(strings.TrimSpace(scanner.Text())):
		case <-ctx.Done():
			return
		}
	}
}

func startMetricsServer(ctx context.Context, addr string, logger *log.Entry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		fail("%v", err)
	}
	if lvl, err := log.ParseLevel(cfg.logLevel); err == nil {
		log.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startMetricsServer(ctx, cfg.metricsAddr, log.WithField("component", "board"))

	if err := run(ctx, cfg, os.Stdin, os.Stdout, prometheus.DefaultRegisterer); err != nil {
		fail("board failed: %v", err)
	}
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
