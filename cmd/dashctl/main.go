// Command dashctl reads and writes dashboard resources through the validated
// gateway. Every command prints JSON on stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/johnwards/dashgate/internal/config"
	"github.com/johnwards/dashgate/internal/csvtransfer"
	"github.com/johnwards/dashgate/internal/dashboard"
	"github.com/johnwards/dashgate/internal/gateway"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
	exitStale = 3
)

const usage = `usage: dashctl <command> [flags]

reads:     kpi | pipeline | next-actions | deal-health | forecast | loss-reasons
           duplicates | connections | events | approvals
mutations: next-action set | connection upsert | event create
           approval create | approval decide
files:     import --entity E --file F | export --entity E [--out NAME]
offline:   validate --kind K --file F`

// errUsage marks argument errors.
var errUsage = errors.New("usage")

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

type stringsFlag []string

func (s *stringsFlag) String() string { return strings.Join(*s, ",") }
func (s *stringsFlag) Set(v string) error {
	if v = strings.TrimSpace(v); v != "" {
		*s = append(*s, v)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every command needs.
type app struct {
	cfg     config.Config
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
	client  *dashboard.Client
	channel *csvtransfer.Channel
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, usage)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "dashctl:", err)
		return exitFail
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	a := &app{cfg: cfg, out: stdout, errOut: stderr, logger: logger}

	err = a.dispatch(ctx, args)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(stderr, "dashctl:", err)
		_, _ = fmt.Fprintln(stderr, usage)
		return exitUsage
	case errors.Is(err, dashboard.ErrStaleRead):
		_, _ = fmt.Fprintln(stderr, "dashctl: write applied but the refresh failed; reload before retrying:", err)
		return exitStale
	default:
		_, _ = fmt.Fprintln(stderr, "dashctl:", err)
		return exitFail
	}
}

// connect builds the gateway stack. validate never calls it, so an offline
// run does not need a valid base URL.
func (a *app) connect() error {
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	g, err := gateway.New(
		gateway.Settings{BaseURL: a.cfg.BaseURL, TenantID: a.cfg.TenantID},
		gateway.WithLogger(a.logger),
		gateway.WithRateLimit(a.cfg.RateLimit, 1),
	)
	if err != nil {
		return err
	}
	a.client = dashboard.New(g, dashboard.WithLogger(a.logger))
	a.channel = csvtransfer.New(g,
		csvtransfer.WithSaver(csvtransfer.DirSaver{Dir: a.cfg.ExportDir}),
		csvtransfer.WithLogger(a.logger),
	)
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
