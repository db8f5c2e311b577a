package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staylens/internal/config"
	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/internal/output"
	"github.com/jmylchreest/staylens/pkg/cache"
	"github.com/jmylchreest/staylens/pkg/credential"
	"github.com/jmylchreest/staylens/pkg/fetcher"
	"github.com/jmylchreest/staylens/pkg/ratelimit"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/source/graphql"
	"github.com/jmylchreest/staylens/pkg/source/scraper"
)

// app holds everything a command needs: the configured client, the output
// writer and the resources to release afterwards.
type app struct {
	ctx    context.Context
	cfg    *config.Config
	client source.Client
	out    output.Writer

	closers []func() error
}

// newApp initializes logging, loads configuration and wires the sources.
// The returned context is cancelled on SIGINT or SIGTERM.
func newApp(cmd *cobra.Command) (*app, error) {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if viper.GetBool("html_only") {
		cfg.GraphQL.Enabled = false
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	a := &app{ctx: ctx, cfg: cfg}
	a.onClose(func() error { cancel(); return nil })

	if err := a.wire(); err != nil {
		_ = a.close()
		return nil, err
	}
	if err := a.openOutput(cmd); err != nil {
		_ = a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) wire() error {
	cfg := a.cfg

	var rc cache.Cache
	if cfg.Cache.RedisURL != "" {
		r, err := cache.DialRedis(a.ctx, cfg.Cache.RedisURL, cfg.Cache.RedisPrefix)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.onClose(r.Close)
		rc = r
		logger.Debug("using redis cache", "prefix", cfg.Cache.RedisPrefix)
	} else {
		rc = cache.NewMemory(cfg.Cache.MaxEntries)
	}

	// Both sources share one pacer so the combined request rate holds.
	limiter := ratelimit.New(cfg.Scraper.RequestsPerSecond)

	static := fetcher.NewStatic(cfg.Fetch())
	a.onClose(static.Close)

	var pages fetcher.Fetcher = static
	switch cfg.Scraper.FetchMode {
	case config.FetchDynamic:
		dyn := fetcher.NewDynamic(fetcher.DynamicConfig{
			UserAgent: cfg.Scraper.UserAgent,
			Timeout:   cfg.Scraper.Timeout,
			Headless:  true,
			ExecPath:  fetcher.FindChrome(),
		})
		a.onClose(dyn.Close)
		pages = dyn
	case config.FetchStatic:
	default:
		return fmt.Errorf("unknown fetch mode: %s (use 'static' or 'dynamic')", cfg.Scraper.FetchMode)
	}

	html := scraper.New(pages,
		scraper.WithConfig(cfg.HTMLSource()),
		scraper.WithCache(rc),
		scraper.WithLimiter(limiter),
	)

	// Search prices back-fill details that come without one. Redis shares
	// them across invocations; otherwise they live for this process only.
	prices := rc
	if cfg.Cache.RedisURL == "" {
		prices = cache.NewMemory(cfg.Cache.MaxEntries)
	}

	if !cfg.GraphQL.Enabled {
		logger.Debug("graphql disabled, using listing pages only", "fetcher", pages.Type())
		a.client = source.NewPriceMemo(html, prices, 0)
		return nil
	}

	// The API only takes GET and POST, which the static fetcher covers.
	// The key comes from the homepage, so it goes through the page fetcher.
	apiFetch := fetcher.NewStatic(cfg.APIFetch())
	a.onClose(apiFetch.Close)
	creds := credential.NewManager(static, cfg.Scraper.BaseURL, cfg.GraphQL.APIKeyCache)
	api := graphql.New(apiFetch, creds,
		graphql.WithConfig(cfg.APISource()),
		graphql.WithCache(rc),
		graphql.WithLimiter(limiter),
	)
	a.client = source.NewPriceMemo(source.NewFallback(api, html), prices, 0)
	logger.Debug("sources wired", "client", a.client.Name(), "fetcher", pages.Type())
	return nil
}

func (a *app) openOutput(cmd *cobra.Command) error {
	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	dst := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		a.onClose(f.Close)
		dst = f
	}

	var opts []output.WriterOption
	if compact, _ := cmd.Flags().GetBool("compact"); compact {
		opts = append(opts, output.WithCompact())
	}
	w, err := output.NewWriter(dst, format, opts...)
	if err != nil {
		return err
	}
	a.out = w
	return nil
}

// emit writes every item and flushes.
func (a *app) emit(items ...any) error {
	if err := a.out.WriteAll(items); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return a.out.Flush()
}

// close releases resources in reverse order of acquisition.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// run wraps a command body with app setup and teardown.
func run(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.close(); err != nil {
				logger.Debug("cleanup failed", "error", err)
			}
		}()
		return fn(a, cmd, args)
	}
}
