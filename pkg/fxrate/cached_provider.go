package fxrate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/finplan/finplan/pkg/currency"
)

// CachedProvider memoizes rates from a source provider in Redis. Cache
// failures are never surfaced: a broken cache degrades to the source lookup.
type CachedProvider struct {
	source Provider
	rdb    *redis.Client
	ttl    time.Duration
}

func NewCachedProvider(source Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{source: source, rdb: rdb, ttl: ttl}
}

func (p *CachedProvider) Rate(ctx context.Context, from, to currency.Code) (decimal.Decimal, error) {
	key := cacheKey(from, to)

	cached, err := p.rdb.Get(ctx, key).Result()
	if err == nil {
		rate, parseErr := decimal.NewFromString(cached)
		if parseErr == nil && rate.Sign() > 0 {
			return rate, nil
		}
		log.Warnf("fxrate: discarding unparsable cached rate %q for %s", cached, key)
	} else if err != redis.Nil {
		log.Debugf("fxrate: cache read failed for %s: %v", key, err)
	}

	rate, err := p.source.Rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	if err := p.rdb.Set(ctx, key, rate.String(), p.ttl).Err(); err != nil {
		log.Debugf("fxrate: cache write failed for %s: %v", key, err)
	}
	return rate, nil
}

func cacheKey(from, to currency.Code) string {
	// The USD/KRW rate is direction-independent, so both orders share a key.
	if from == currency.KRW && to == currency.USD {
		from, to = to, from
	}
	return fmt.Sprintf("fxrate:%s:%s", from, to)
}
