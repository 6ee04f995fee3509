package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/catalog"
	"github.com/vladislavdragonenkov/checkout/internal/client"
	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

const usage = `usage: checkout-scan [-api URL] <command> [flags]

commands:
  add       add a product (-label/-grams from the scale catalog, or -name/-price/-taken)
  list      print products on the register
  clear     clear products (-version N clears only an unchanged list)
  checkout  record a checkout for the current products
  watch     print register events from Kafka
`

// eventWatcher читает события регистратора до отмены ctx.
type eventWatcher func(ctx context.Context, cfg watchConfig, handle kafka.EnvelopeHandler) error

type watchConfig struct {
	brokers    []string
	topic      string
	group      string
	fromOldest bool
}

type cli struct {
	out   io.Writer
	watch eventWatcher
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.WarnLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := cli{out: os.Stdout, watch: watchKafka}
	if err := c.run(ctx, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		fail("%v", err)
	}
}

func (c cli) run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("checkout-scan", flag.ContinueOnError)
	global.SetOutput(c.out)
	global.Usage = func() { _, _ = fmt.Fprint(c.out, usage) }
	apiURL := global.String("api", envOr("CHECKOUT_API", "http://localhost:3000"), "checkout server base URL (fallback: CHECKOUT_API)")
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errors.New("command is required")
	}

	command, cmdArgs := rest[0], rest[1:]
	if command == "watch" {
		return c.runWatch(ctx, cmdArgs)
	}

	api, err := client.New(*apiURL, client.WithUserAgent(version.UserAgent("checkout-scan")))
	if err != nil {
		return err
	}

	switch command {
	case "add":
		err = c.runAdd(ctx, api, cmdArgs)
	case "list":
		err = c.runList(ctx, api)
	case "clear":
		err = c.runClear(ctx, api, cmdArgs)
	case "checkout":
		err = c.runCheckout(ctx, api, cmdArgs)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	if client.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w (is -api pointing at the checkout server?)", err)
	}
	return err
}

func (c cli) runAdd(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(c.out)
	id := fs.String("id", "", "product id (default: next position on the register)")
	label := fs.String("label", "", "scale label: "+strings.Join(catalog.Default().Labels(), ", "))
	grams := fs.Int64("grams", 0, "weight on the scale, grams")
	name := fs.String("name", "", "product name")
	price := fs.String("price", "", "price per unit")
	taken := fs.Int64("taken", 1, "units taken")
	unit := fs.String("unit", "units", "unit name")
	payable := fs.String("payable", "", "payable amount (default: price * taken)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" {
		list, err := api.ListProducts(ctx)
		if err != nil {
			return err
		}
		*id = strconv.Itoa(len(list.Products) + 1)
	}

	var item catalog.Item
	switch {
	case *label != "":
		var err error
		item, err = catalog.Default().Price(*id, *label, *grams)
		if err != nil {
			return err
		}
	case *name != "":
		var err error
		item, err = manualItem(*id, *name, *price, *unit, *taken, *payable)
		if err != nil {
			return err
		}
	default:
		return errors.New("add: -label or -name is required")
	}

	ver, err := api.AddProduct(ctx, item)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "added %s x%d = %s (version %d)\n", item.Name, item.Taken, item.Payable, ver)
	return err
}

func manualItem(id, name, price, unit string, taken int64, payable string) (catalog.Item, error) {
	if taken < 1 {
		return catalog.Item{}, errors.New("add: -taken must be >= 1")
	}
	unitPrice, err := domain.ParseAmount(price)
	if err != nil {
		return catalog.Item{}, fmt.Errorf("add: -price: %w", err)
	}

	total := unitPrice.Mul(decimal.NewFromInt(taken))
	if payable != "" {
		if total, err = domain.ParseAmount(payable); err != nil {
			return catalog.Item{}, fmt.Errorf("add: -payable: %w", err)
		}
	}

	return catalog.Item{
		ID:      id,
		Name:    name,
		Price:   json.Number(unitPrice.String()),
		Unit:    unit,
		Units:   unit,
		Taken:   taken,
		Payable: json.Number(total.Round(2).String()),
	}, nil
}

func (c cli) runList(ctx context.Context, api *client.Client) error {
	list, err := api.ListProducts(ctx)
	if err != nil {
		return err
	}

	total, err := domain.Total(list.Products)
	if err != nil {
		log.WithError(err).Debug("some payables are not numbers, counted as zero")
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tTAKEN\tPAYABLE")
	for _, p := range list.Products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\n", p.ID, p.Name, p.Price, p.Taken, p.Unit, p.Payable)
	}
	_, _ = fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\n", domain.FormatAmount(total))
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "version %d, %d products\n", list.Version, len(list.Products))
	return err
}

func (c cli) runClear(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.SetOutput(c.out)
	ver := fs.Int64("version", -1, "clear only if the list is still at this version")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *ver >= 0 {
		err = api.ClearProductsIfVersion(ctx, uint64(*ver))
	} else {
		err = api.ClearProducts(ctx)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, "all products cleared")
	return err
}

func (c cli) runCheckout(ctx context.Context, api *client.Client, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(c.out)
	currency := fs.String("currency", "LKR", "currency of the order")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := api.ListProducts(ctx)
	if err != nil {
		return err
	}
	total, err := domain.Total(list.Products)
	if err != nil {
		log.WithError(err).Debug("some payables are not numbers, counted as zero")
	}

	order := domain.CheckoutOrder{
		ID:        uuid.NewString(),
		Total:     domain.FormatAmount(total),
		Currency:  *currency,
		Items:     list.Products,
		CreatedAt: time.Now().UTC(),
	}
	if err := api.RecordCheckout(ctx, order); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.out, "checkout %s recorded: %s %s\n", order.ID, order.Currency, order.Total)
	return err
}

func (c cli) runWatch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(c.out)
	brokers := fs.String("brokers", os.Getenv("KAFKA_BROKERS"), "Kafka brokers as comma-separated list (fallback: KAFKA_BROKERS)")
	topic := fs.String("topic", kafka.DefaultTopic, "register events topic")
	group := fs.String("group", "checkout-scan-"+uuid.NewString()[:8], "consumer group")
	fromOldest := fs.Bool("from-oldest", false, "read the topic from the beginning")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := watchConfig{
		brokers:    parseBrokers(*brokers),
		topic:      *topic,
		group:      *group,
		fromOldest: *fromOldest,
	}
	if len(cfg.brokers) == 0 {
		return errors.New("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	}

	return c.watch(ctx, cfg, func(_ context.Context, event domain.EventEnvelope) error {
		_, err := fmt.Fprintf(c.out, "%s\t%s\t%s\n", event.OccurredAt.Format(time.RFC3339), event.EventType, event.Payload)
		return err
	})
}

func watchKafka(ctx context.Context, cfg watchConfig, handle kafka.EnvelopeHandler) error {
	consumer, err := kafka.NewConsumer(cfg.brokers, cfg.group, []string{cfg.topic}, cfg.fromOldest, handle)
	if err != nil {
		return err
	}
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := consumer.Stop(); err != nil {
		return err
	}
	return ctx.Err()
}

func parseBrokers(raw string) []string {
	chunks := strings.Split(raw, ",")
	brokers := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		broker := strings.TrimSpace(chunk)
		if broker == "" {
			continue
		}
		brokers = append(brokers, broker)
	}
	return brokers
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
