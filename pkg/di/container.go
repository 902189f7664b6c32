// Package di wires the module's components together from one Config.
package di

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pakcart/storesync/cache"
	"github.com/pakcart/storesync/formrelay"
	"github.com/pakcart/storesync/livequery"
	"github.com/pakcart/storesync/pkg/config"
	"github.com/pakcart/storesync/quota"
	"github.com/pakcart/storesync/sourcews"
	"github.com/pakcart/storesync/storefront"
	"github.com/pakcart/storesync/upload"
)

// Container provides dependency injection for the sync and upload components.
// It manages singleton instances of the cache service, key serializer, and
// binder, and constructs the uploader and form relay client from
// configuration.
type Container struct {
	cfg           *config.Config
	logger        *slog.Logger
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	binder        *livequery.Binder
	uploader      *upload.Uploader
	quotaStore    quota.Store
	formRelay     *formrelay.Client
	allowList     *storefront.AllowList
}

// Options tweak container construction.
type Options struct {
	// Source overrides the WebSocket source, mostly for tests. Nil builds a
	// sourcews client from cfg.Source.
	Source livequery.Source

	// HTTPClient is shared by the uploader and form relay. Nil uses each
	// component's default.
	HTTPClient *http.Client

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// NewContainer builds all components from the configuration. The quota store
// is SQLite-backed when cfg.Upload.QuotaDB is set, in-memory otherwise.
func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cacheService, err := cache.NewCacheService(cfg.Cache)
	if err != nil {
		return nil, err
	}
	keySerializer := cache.NewDefaultKeySerializer()

	source := opts.Source
	if source == nil {
		client, err := sourcews.New(sourcews.Config{
			BaseURL:      cfg.Source.BaseURL,
			WebSocketURL: cfg.Source.WebSocketURL,
			HTTPClient:   opts.HTTPClient,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		source = client
	}

	binder := livequery.NewBinder(source, cacheService, keySerializer, logger)

	var quotaStore quota.Store
	if cfg.Upload.QuotaDB != "" {
		store, err := quota.OpenBunStore(ctx, cfg.Upload.QuotaDB)
		if err != nil {
			return nil, err
		}
		quotaStore = store
	} else {
		quotaStore = quota.NewMemoryStore()
	}

	uploader, err := upload.New(upload.Config{
		Endpoint:     cfg.Upload.Endpoint,
		Preset:       cfg.Upload.Preset,
		Limits:       cfg.Upload.Limits,
		DailyCeiling: cfg.Upload.DailyCeiling,
		Quota:        quotaStore,
		HTTPClient:   opts.HTTPClient,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	var relay *formrelay.Client
	if cfg.FormRelay.Endpoint != "" {
		relay, err = formrelay.New(cfg.FormRelay.Endpoint, cfg.FormRelay.AccessKey, opts.HTTPClient, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Container{
		cfg:           cfg,
		logger:        logger,
		cacheService:  cacheService,
		keySerializer: keySerializer,
		binder:        binder,
		uploader:      uploader,
		quotaStore:    quotaStore,
		formRelay:     relay,
		allowList:     storefront.NewAllowList(cfg.AdminEmails),
	}, nil
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the singleton key serializer instance.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Binder returns the live query binder.
func (c *Container) Binder() *livequery.Binder {
	return c.binder
}

// Uploader returns the configured upload pipeline.
func (c *Container) Uploader() *upload.Uploader {
	return c.uploader
}

// QuotaStore returns the daily upload counter store.
func (c *Container) QuotaStore() quota.Store {
	return c.quotaStore
}

// FormRelay returns the form relay client, or nil when not configured.
func (c *Container) FormRelay() *formrelay.Client {
	return c.formRelay
}

// AllowList returns the injected admin allow list.
func (c *Container) AllowList() *storefront.AllowList {
	return c.allowList
}

// Sitemap returns a sitemap builder rooted at the configured site URL.
func (c *Container) Sitemap() storefront.Sitemap {
	return storefront.Sitemap{BaseURL: c.cfg.SiteBaseURL}
}
