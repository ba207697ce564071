package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/go-storefront/internal/httpclient"
	"github.com/pribylovaa/go-storefront/internal/proxy"
)

// cmdProxy поднимает локальный аутентифицирующий прокси и отдельный
// HTTP для /livez, /healthz и /metrics. Завершается по SIGINT/SIGTERM.
func cmdProxy(ctx context.Context, a *app, args []string) (any, error) {
	if err := noArgs(args); err != nil {
		return nil, err
	}

	log := a.log
	log.Info("starting storefront proxy", "env", a.cfg.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sf, err := a.client(httpclient.WithMetrics(httpclient.NewMetrics(reg)))
	if err != nil {
		return nil, err
	}

	proxyHandler := proxy.NewRouter(sf, proxy.Options{
		Logger:   log,
		Timeout:  a.cfg.Proxy.Timeout,
		BasePath: a.cfg.Proxy.BasePath,
		MaxBody:  a.cfg.Proxy.MaxBody,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	proxySrv := &http.Server{Handler: proxyHandler, ReadHeaderTimeout: 5 * time.Second}
	metricsSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	proxyLn, err := net.Listen("tcp", a.cfg.Proxy.Addr())
	if err != nil {
		log.Error("proxy_listen_failed", slog.String("addr", a.cfg.Proxy.Addr()), slog.String("err", err.Error()))
		return nil, err
	}

	metricsLn, err := net.Listen("tcp", a.cfg.Metrics.Addr())
	if err != nil {
		_ = proxyLn.Close()
		log.Error("metrics_listen_failed", slog.String("addr", a.cfg.Metrics.Addr()), slog.String("err", err.Error()))
		return nil, err
	}

	log.Info("http_listen_start",
		slog.String("proxy_addr", proxyLn.Addr().String()),
		slog.String("metrics_addr", metricsLn.Addr().String()),
	)

	serveErrCh := make(chan error, 2)
	serve := func(srv *http.Server, ln net.Listener) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}
	go serve(proxySrv, proxyLn)
	go serve(metricsSrv, metricsLn)

	atomic.StoreInt32(&ready, 1)
	log.Info("proxy_ready")

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		log.Error("http_serve_failed", slog.String("err", serveErr.Error()))
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := proxySrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("proxy_shutdown_incomplete", slog.String("err", err.Error()))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("metrics_shutdown_incomplete", slog.String("err", err.Error()))
	}

	log.Info("proxy_stopped")

	return nil, serveErr
}
