package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codigomaromba/item-fetcher/internal/config"
	"github.com/codigomaromba/item-fetcher/internal/domain"
	"github.com/codigomaromba/item-fetcher/internal/fetcher"
	"github.com/codigomaromba/item-fetcher/internal/logger"
	"github.com/codigomaromba/item-fetcher/internal/storage"
	"github.com/codigomaromba/item-fetcher/pkg/httpclient"
	"github.com/codigomaromba/item-fetcher/pkg/publishers"
)

// ItemFetcher returns the current item list from the external endpoint.
type ItemFetcher interface {
	FetchItems(ctx context.Context) ([]string, error)
}

// EventPublisher publishes item events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
	Size() int
	Close() error
}

// Poller repeatedly fetches items and forwards the ones it has not seen yet.
type Poller struct {
	fetcher   ItemFetcher
	publisher EventPublisher
	store     storage.Store
	interval  time.Duration
	source    string
	log       logger.Logger
}

// NewPoller builds the poller runtime from config.
func NewPoller(ctx context.Context, cfg *config.Config, log logger.Logger) (*Poller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := fetcher.NewService(httpclient.NewRestyClient(cfg.HTTPTimeout), log)
	if err != nil {
		return nil, fmt.Errorf("init fetch service: %w", err)
	}

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ItemTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"item_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return newPoller(svc, fanout, store, cfg.PollInterval, log), nil
}

func newPoller(f ItemFetcher, pub EventPublisher, store storage.Store, interval time.Duration, log logger.Logger) *Poller {
	if log == nil {
		log = logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore(storage.TypeNone, "", storage.Options{})
	}
	if pub == nil {
		pub = publishers.NewFanout(nil)
	}
	return &Poller{
		fetcher:   f,
		publisher: pub,
		store:     store,
		interval:  interval,
		source:    fetcher.Endpoint(),
		log:       log,
	}
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		log.WarnObj("no publishers file configured; items will only be logged", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, cfg := range enabled {
		summaries = append(summaries, map[string]string{"id": cfg.ID, "type": cfg.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Run polls immediately and then on every interval until ctx is done. With a
// zero interval it returns after the first poll, reporting its error.
func (p *Poller) Run(ctx context.Context) error {
	if p == nil || p.fetcher == nil {
		return fmt.Errorf("poller is not initialized")
	}
	defer p.close()

	if p.interval <= 0 {
		return p.pollOnce(ctx)
	}

	p.log.InfoObj("poller loop starting", "poller_state", map[string]any{
		"endpoint":         p.source,
		"publishers_count": p.publisher.Size(),
		"poll_interval":    p.interval.String(),
	})

	if err := p.pollOnce(ctx); err != nil {
		p.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poller loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// pollOnce fetches the item list once and publishes unseen items.
func (p *Poller) pollOnce(ctx context.Context) error {
	start := time.Now()

	values, err := p.fetcher.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("fetch items: %w", err)
	}

	items := p.filterNewItems(domain.NewItems(values))
	published := 0
	var errs []error
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		ok, err := p.publish(ctx, item)
		if err != nil {
			errs = append(errs, fmt.Errorf("item %s: %w", item.ID, err))
		}
		if ok {
			published++
		}
	}

	p.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"fetched":    len(values),
		"new":        len(items),
		"published":  published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	if len(errs) > 0 {
		return fmt.Errorf("publish items: %w", errors.Join(errs...))
	}
	return nil
}

// publish sends one item and marks it seen if any sink accepted it, or if
// there are no sinks configured.
func (p *Poller) publish(ctx context.Context, item domain.Item) (bool, error) {
	if p.publisher.Size() == 0 {
		p.log.InfoObj("item fetched", "item", item)
		return true, p.store.MarkItem(item.ID)
	}

	delivered, pubErr := p.publisher.Publish(ctx, publishers.NewEvent(p.source, item))
	if delivered == 0 {
		return false, pubErr
	}
	if err := p.store.MarkItem(item.ID); err != nil {
		return true, errors.Join(pubErr, fmt.Errorf("mark item: %w", err))
	}
	return true, pubErr
}

// filterNewItems drops items already seen and duplicates within the batch.
// Store lookup failures are logged and the item is kept.
func (p *Poller) filterNewItems(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	batch := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := batch[item.ID]; dup {
			continue
		}
		batch[item.ID] = struct{}{}

		seen, err := p.store.SeenItem(item.ID)
		if err != nil {
			p.log.WarnObj("seen lookup failed; treating item as new", "store_error", map[string]any{
				"item_id": item.ID,
				"error":   err.Error(),
			})
		}
		if seen {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (p *Poller) close() {
	if err := p.publisher.Close(); err != nil {
		p.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if err := p.store.Close(); err != nil {
		p.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
