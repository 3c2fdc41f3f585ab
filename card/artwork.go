package card

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// maxArtworkBytes bounds how much of a cover image response is read.
const maxArtworkBytes = 10 << 20

// ArtworkFetcher loads a cover image by URL.
type ArtworkFetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

type HTTPArtworkFetcher struct {
	httpClient *http.Client
}

func NewHTTPArtworkFetcher(timeout time.Duration) *HTTPArtworkFetcher {
	return &HTTPArtworkFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (f *HTTPArtworkFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork host returned status %d", resp.StatusCode)
	}

	img, err := imaging.Decode(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding artwork: %w", err)
	}
	return img, nil
}

type cachedArtwork struct {
	img     image.Image
	expires time.Time
}

// CachedArtworkFetcher keeps decoded cover images for a TTL. Failures are
// never cached so a flaky host is retried on the next render.
type CachedArtworkFetcher struct {
	next       ArtworkFetcher
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedArtwork
}

func NewCachedArtworkFetcher(next ArtworkFetcher, ttl time.Duration, maxEntries int) *CachedArtworkFetcher {
	return &CachedArtworkFetcher{
		next:       next,
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		cache:      make(map[string]cachedArtwork),
	}
}

func (c *CachedArtworkFetcher) Fetch(ctx context.Context, url string) (image.Image, error) {
	now := c.now()
	c.mu.Lock()
	if entry, ok := c.cache[url]; ok && now.Before(entry.expires) {
		c.mu.Unlock()
		return entry.img, nil
	}
	c.mu.Unlock()

	img, err := c.next.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxEntries > 0 && len(c.cache) >= c.maxEntries {
		c.evict(now)
	}
	c.cache[url] = cachedArtwork{img: img, expires: now.Add(c.ttl)}
	return img, nil
}

// evict drops expired entries, then the soonest-expiring one if still full.
// Callers hold mu.
func (c *CachedArtworkFetcher) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.cache {
		if !now.Before(entry.expires) {
			delete(c.cache, key)
			continue
		}
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey, oldest = key, entry.expires
		}
	}
	if len(c.cache) >= c.maxEntries && oldestKey != "" {
		delete(c.cache, oldestKey)
	}
}
