package polymarket

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/carlo-scr/HalloweenHack/internal/domain"
	"github.com/carlo-scr/HalloweenHack/internal/ports"
)

const (
	gammaMarketsPath = "/markets"
	trendingDefault  = 10
	searchScanLimit  = 50
)

// Collect resolves one market by identifier. Slug and condition-id
// lookups hit Gamma directly; free-text search scans the top active
// markets for a question match. Failures wrap domain.ErrCollection.
func (c *Client) Collect(ctx context.Context, identifier string, method ports.CollectMethod) (domain.MarketSnapshot, error) {
	switch method {
	case ports.MethodSlug:
		return c.collectBy(ctx, "slug", identifier)
	case ports.MethodID:
		return c.collectBy(ctx, "condition_ids", identifier)
	case ports.MethodSearch, "":
		return c.search(ctx, identifier)
	default:
		return domain.MarketSnapshot{}, fmt.Errorf("polymarket.Collect: unknown method %q: %w", method, domain.ErrCollection)
	}
}

// Trending returns up to limit active markets ordered by volume.
func (c *Client) Trending(ctx context.Context, limit int) ([]domain.MarketSnapshot, error) {
	if limit <= 0 {
		limit = trendingDefault
	}
	u := fmt.Sprintf("%s%s?active=true&closed=false&order=volumeNum&ascending=false&limit=%d",
		c.base, gammaMarketsPath, limit)

	var resp gammaMarketsResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("polymarket.Trending: %w: %w", domain.ErrCollection, err)
	}

	now := time.Now().UTC()
	snapshots := make([]domain.MarketSnapshot, 0, len(resp))
	for _, gm := range resp {
		m, err := mapGammaMarket(gm, now)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, m)
	}
	return snapshots, nil
}

// collectBy fetches a single market filtered on the given query param.
func (c *Client) collectBy(ctx context.Context, param, value string) (domain.MarketSnapshot, error) {
	u := fmt.Sprintf("%s%s?%s=%s&limit=1", c.base, gammaMarketsPath, param, url.QueryEscape(value))

	var resp gammaMarketsResponse
	if err := c.get(ctx, u, &resp); err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("polymarket.Collect %s=%s: %w: %w", param, value, domain.ErrCollection, err)
	}
	if len(resp) == 0 {
		return domain.MarketSnapshot{}, fmt.Errorf("polymarket.Collect: no market for %s=%s: %w", param, value, domain.ErrCollection)
	}
	m, err := mapGammaMarket(resp[0], time.Now().UTC())
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("polymarket.Collect: %w: %w", domain.ErrCollection, err)
	}
	return m, nil
}

// search scans the top active markets for a question containing the
// query, preferring the highest-volume match. It also tries the
// slugified query first, which resolves copy-pasted market URLs.
func (c *Client) search(ctx context.Context, query string) (domain.MarketSnapshot, error) {
	if slug := slugify(query); slug != "" {
		if m, err := c.collectBy(ctx, "slug", slug); err == nil {
			return m, nil
		}
	}

	candidates, err := c.Trending(ctx, searchScanLimit)
	if err != nil {
		return domain.MarketSnapshot{}, fmt.Errorf("polymarket.search %q: %w", query, err)
	}

	needle := strings.ToLower(query)
	for _, m := range candidates {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			return m, nil
		}
	}
	return domain.MarketSnapshot{}, fmt.Errorf("polymarket.search: no market matching %q: %w", query, domain.ErrCollection)
}

// slugify lowercases a query and joins words with dashes, the Gamma
// slug convention.
func slugify(q string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(q)))
	var kept []string
	for _, f := range fields {
		var b strings.Builder
		for _, r := range f {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			kept = append(kept, b.String())
		}
	}
	return strings.Join(kept, "-")
}
