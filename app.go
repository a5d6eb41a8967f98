package main

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"biblioteca-backend/internal/catalog"
	"biblioteca-backend/internal/loanform"
	"biblioteca-backend/internal/loans"
	"biblioteca-backend/internal/platform/apidocs"
	"biblioteca-backend/internal/platform/config"
	"biblioteca-backend/internal/platform/metrics"
	"biblioteca-backend/internal/platform/middleware"
	"biblioteca-backend/internal/ui"
	"biblioteca-backend/internal/webstorage"
)

// app は1プロセス分の部品（ページは1つ、単一利用者）
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   io.Closer
	watcher *catalog.Watcher
	log     *loans.Log
	doc     *ui.Document
	ctl     *loanform.Controller
	reg     *prometheus.Registry
	metrics *metrics.Recorder
}

// newApp opens storage, builds the page and starts its controller. diagOut
// receives the rendered loan table after each accepted submission.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, diagOut io.Writer) (*app, error) {
	books := catalog.Sort(catalog.Default())
	if cfg.Catalog.Path != "" {
		var err error
		if books, err = catalog.Load(cfg.Catalog.Path); err != nil {
			return nil, err
		}
	}

	store, closer, err := webstorage.Open(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewRecorder(reg)

	lg := loans.NewLog(store, cfg.Storage.Key)
	doc := loanform.NewPage(books)

	opts := []loanform.Option{
		loanform.WithLogger(logger.Named("loanform")),
		loanform.WithMetrics(rec),
		loanform.WithSuccessHideAfter(cfg.Form.SuccessHideAfter),
	}
	if cfg.Diagnostics.Enabled {
		opts = append(opts, loanform.WithDiagnostics(loans.NewDiagnostics(lg, logger.Named("diag"), diagOut)))
	}
	ctl := loanform.New(doc, lg, opts...)
	ctl.AttachOnReady()
	doc.Ready(ctx)

	var watcher *catalog.Watcher
	if cfg.Catalog.Path != "" && cfg.Catalog.Watch {
		watcher, err = catalog.NewWatcher(cfg.Catalog.Path, logger.Named("catalog"), func(books []catalog.Book) {
			doc.Do(func() { loanform.SetBooks(doc, books) })
		})
		if err == nil {
			if err = watcher.Start(ctx); err != nil {
				watcher.Stop()
			}
		}
		if err != nil {
			// 監視できなくても起動時のカタログで動く
			logger.Warn("catalog watch disabled", zap.Error(err))
			watcher = nil
		}
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   closer,
		watcher: watcher,
		log:     lg,
		doc:     doc,
		ctl:     ctl,
		reg:     reg,
		metrics: rec,
	}, nil
}

func (a *app) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.doc.Close()
	a.ctl.Close()
	return a.store.Close()
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(a.logger.Named("http")), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if a.cfg.Mode == config.ModeDev {
		// CORS（開発中のみ必要）
		if len(a.cfg.Server.AllowOrigins) > 0 {
			r.Use(cors.New(cors.Config{
				AllowOrigins:     a.cfg.Server.AllowOrigins,
				AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderRequestID},
				ExposeHeaders:    []string{"Content-Length", "X-Total-Count", middleware.HeaderRequestID},
				AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
				AllowCredentials: true,
			}))
		}
		apidocs.Register(r)
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{})))

	// /api/v1
	api := r.Group("/api/v1")
	loanform.RegisterRoutes(api, a.doc)
	loans.RegisterRoutes(api, loans.NewService(a.log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, loans.ErrorBody(loans.CodeNotFound, "no route"))
	})
	return r
}

// blockedError is returned by submit when validation stops the request.
type blockedError struct {
	fields map[string]string
}

func (e *blockedError) Error() string {
	return "loan request blocked by validation"
}

func isBlocked(err error) bool {
	var b *blockedError
	return errors.As(err, &b)
}
