package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ignite/polite-popup/internal/config"
)

// newsletterPreview fetches recent issues from the newsletter's RSS feed for
// the popup's content area, caching results briefly so scrolling visitors do
// not hammer the feed host.
type newsletterPreview struct {
	cfg    config.NewsletterConfig
	parser *gofeed.Parser

	mu        sync.Mutex
	items     []previewItem
	fetchedAt time.Time
}

type previewItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Published string `json:"published,omitempty"`
}

func newNewsletterPreview(cfg config.NewsletterConfig) *newsletterPreview {
	return &newsletterPreview{
		cfg:    cfg,
		parser: gofeed.NewParser(),
	}
}

// HandleNewsletterPreview handles GET /api/v1/newsletter/preview.
func (h *Handlers) HandleNewsletterPreview(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Newsletter.FeedURL == "" {
		http.Error(w, "newsletter feed not configured", http.StatusNotFound)
		return
	}

	items, err := h.preview.fetch(r.Context())
	if err != nil {
		log.Printf("ERROR fetching newsletter feed: %v", err)
		http.Error(w, "feed unavailable", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (p *newsletterPreview) fetch(ctx context.Context) ([]previewItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cacheTTL := time.Duration(p.cfg.CacheMinutes) * time.Minute
	if p.items != nil && time.Since(p.fetchedAt) < cacheTTL {
		return p.items, nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	feed, err := p.parser.ParseURLWithContext(p.cfg.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", p.cfg.FeedURL, err)
	}

	limit := p.cfg.PreviewItems
	if limit > len(feed.Items) {
		limit = len(feed.Items)
	}
	items := make([]previewItem, 0, limit)
	for _, it := range feed.Items[:limit] {
		pi := previewItem{Title: it.Title, Link: it.Link}
		if it.PublishedParsed != nil {
			pi.Published = it.PublishedParsed.Format(time.RFC3339)
		}
		items = append(items, pi)
	}

	p.items = items
	p.fetchedAt = time.Now()
	return items, nil
}
