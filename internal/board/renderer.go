package board

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
)

// Renderer получает полное состояние табло после каждого изменения.
type Renderer interface {
	Render(Snapshot)
}

// RendererFunc позволяет использовать функцию как Renderer.
type RendererFunc func(Snapshot)

// Render реализует Renderer.
func (f RendererFunc) Render(s Snapshot) { f(s) }

// ConsoleRenderer печатает табло в терминал.
type ConsoleRenderer struct {
	out    io.Writer
	qrOut  string
	logger *log.Entry
}

// ConsoleOption настраивает ConsoleRenderer.
type ConsoleOption func(*ConsoleRenderer)

// WithQROutput сохраняет картинку QR-кода в файл при показе экрана оплаты.
func WithQROutput(path string) ConsoleOption {
	return func(r *ConsoleRenderer) {
		r.qrOut = path
	}
}

// WithRendererLogger задаёт logger для ошибок записи.
func WithRendererLogger(logger *log.Entry) ConsoleOption {
	return func(r *ConsoleRenderer) {
		r.logger = logger
	}
}

// NewConsoleRenderer создаёт renderer, печатающий в out.
func NewConsoleRenderer(out io.Writer, opts ...ConsoleOption) *ConsoleRenderer {
	r := &ConsoleRenderer{
		out:    out,
		logger: log.WithField("component", "board-renderer"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render печатает текущий экран.
func (r *ConsoleRenderer) Render(s Snapshot) {
	var b strings.Builder

	fmt.Fprintf(&b, "\n==== %s ====\n", strings.ToUpper(s.State.String()))
	switch s.State {
	case StateIdle:
		b.WriteString("Place items on the scale\n")
	case StateActive:
		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tPRODUCT\tPER UNIT\tUNITS\tPAYABLE\tIMAGE")
		for i, card := range s.Cards {
			p := card.Product
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\t%s\t%s\n", i+1, p.Name, p.Price, p.Taken, p.Unit, p.Payable, card.ImagePath)
		}
		_ = tw.Flush()
		fmt.Fprintf(&b, "[ %s ]\n", s.Label)
	case StateLoading:
		b.WriteString("Preparing payment...\n")
	case StateQR:
		fmt.Fprintf(&b, "Scan to pay: %s\n", s.QRText)
		if r.qrOut != "" {
			if err := os.WriteFile(r.qrOut, s.QRImage.Data, 0o644); err != nil {
				r.logger.WithError(err).WithField("path", r.qrOut).Warn("failed to write qr image")
			} else {
				fmt.Fprintf(&b, "QR image saved to %s\n", r.qrOut)
			}
		} else if s.QRImage.SourceURL != "" {
			fmt.Fprintf(&b, "QR image: %s\n", s.QRImage.SourceURL)
		}
	case StateSuccess:
		b.WriteString("Payment successful. Thank you!\n")
	}

	if _, err := io.WriteString(r.out, b.String()); err != nil {
		r.logger.WithError(err).Warn("failed to render board")
	}
}
