package weather

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const defaultCacheTTL = 30 * time.Minute

// CachedProvider memoizes another provider per city and variant so repeated
// turns within a session do not re-hit the upstream API.
type CachedProvider struct {
	inner contractx.WeatherProvider
	cache *gocache.Cache
}

func NewCachedProvider(inner contractx.WeatherProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Current(ctx context.Context, city string) (statex.WeatherReport, error) {
	key := "current:" + city
	if cached, ok := p.cache.Get(key); ok {
		return cached.(statex.WeatherReport), nil
	}

	report, err := p.inner.Current(ctx, city)
	if err != nil {
		return statex.WeatherReport{}, err
	}
	p.cache.SetDefault(key, report)
	return report, nil
}

func (p *CachedProvider) Forecast(ctx context.Context, city string, days int) ([]statex.WeatherReport, error) {
	key := fmt.Sprintf("forecast:%s:%d", city, days)
	if cached, ok := p.cache.Get(key); ok {
		return cached.([]statex.WeatherReport), nil
	}

	reports, err := p.inner.Forecast(ctx, city, days)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, reports)
	return reports, nil
}
