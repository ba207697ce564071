package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pribylovaa/go-storefront/internal/config"
	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/storefront"
	"github.com/pribylovaa/go-storefront/internal/tokenstore"
	logctx "github.com/pribylovaa/go-storefront/pkg/log"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

var errUsage = errors.New("usage")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run разбирает глобальные флаги, собирает клиент и выполняет подкоманду.
// Результат команды печатается в stdout как JSON, ошибки и логи идут в stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file")
	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr)
		return 2
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		printUsage(stderr)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}

	log := setupLogger(cfg.Env, stderr)
	ctx, _ = logctx.With(logctx.Into(ctx, log), slog.String("cmd", name))

	store, err := tokenstore.New(ctx, cfg.Store)
	if err != nil {
		fmt.Fprintln(stderr, "store:", err)
		return 1
	}
	if c, ok := store.(io.Closer); ok {
		defer func() {
			if cerr := c.Close(); cerr != nil {
				log.Warn("store_close_failed", slog.String("err", cerr.Error()))
			}
		}()
	}

	a := &app{cfg: cfg, log: log, store: store}

	out, err := cmd.run(ctx, a, rest)
	if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(stderr, "usage: storefront %s %s\n", name, cmd.usage)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if out == nil {
		return 0
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	return 0
}

// app — зависимости, общие для подкоманд.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store tokenstore.Store
}

func (a *app) client(opts ...httpclient.Option) (*storefront.Client, error) {
	opts = append([]httpclient.Option{httpclient.WithLogger(a.log)}, opts...)

	api, err := httpclient.New(a.cfg.API, a.store, opts...)
	if err != nil {
		return nil, err
	}

	return storefront.New(api), nil
}

func setupLogger(env string, w io.Writer) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
