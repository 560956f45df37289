package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"turbopricer/internal/domain"
)

// positionValueRetention bounds the position-value history kept per outcome.
// Anything older than the 24h change window plus slack is trimmed on write.
const positionValueRetention = 48 * time.Hour

// SnapshotCache implements domain.SnapshotCache on Redis. Pool snapshots are
// stored as JSON with raw big integers rendered as decimal strings, cash
// prices as plain string values, and position-value history as a sorted set
// scored by unix timestamp.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func poolKey(marketID string) string {
	return "pool:" + strings.ToLower(marketID)
}

func cashPriceKey(symbol string) string {
	return "cashprice:" + strings.ToUpper(symbol)
}

func positionValueKey(account, marketID string, outcomeID int) string {
	return fmt.Sprintf("posval:%s:%s:%d", strings.ToLower(account), strings.ToLower(marketID), outcomeID)
}

// poolDoc is the wire form of domain.Pool. Raw amounts are decimal strings so
// nothing is lost to float encoding.
type poolDoc struct {
	Address     string   `json:"address"`
	MarketID    string   `json:"marketId"`
	Balances    []string `json:"balances"`
	Weights     []string `json:"weights"`
	Ratios      []string `json:"ratios"`
	Fee         string   `json:"fee"`
	TotalSupply string   `json:"totalSupply"`
	ShareFactor string   `json:"shareFactor"`
}

func bigsToStrings(in []*big.Int) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = "0"
			continue
		}
		out[i] = v.String()
	}
	return out
}

func stringsToBigs(in []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(in))
	for i, s := range in {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("bad integer %q", s)
		}
		out[i] = v
	}
	return out, nil
}

func stringToBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("bad integer %q", s)
	}
	return v, nil
}

// SetPool stores the latest pool snapshot for a market with the given TTL.
func (sc *SnapshotCache) SetPool(ctx context.Context, pool *domain.Pool, ttl time.Duration) error {
	doc := poolDoc{
		Address:  pool.Address,
		MarketID: pool.MarketID,
		Balances: bigsToStrings(pool.BalancesRaw),
		Weights:  bigsToStrings(pool.Weights),
		Ratios:   bigsToStrings(pool.Ratios),
	}
	if pool.FeeRaw != nil {
		doc.Fee = pool.FeeRaw.String()
	} else {
		doc.Fee = "0"
	}
	if pool.TotalSupply != nil {
		doc.TotalSupply = pool.TotalSupply.String()
	} else {
		doc.TotalSupply = "0"
	}
	if pool.ShareFactor != nil {
		doc.ShareFactor = pool.ShareFactor.String()
	} else {
		doc.ShareFactor = "0"
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("redis: marshal pool %s: %w", pool.MarketID, err)
	}
	if err := sc.rdb.Set(ctx, poolKey(pool.MarketID), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set pool %s: %w", pool.MarketID, err)
	}
	return nil
}

// GetPool returns the cached pool snapshot for a market, or
// domain.ErrNotFound when no snapshot is cached.
func (sc *SnapshotCache) GetPool(ctx context.Context, marketID string) (*domain.Pool, error) {
	body, err := sc.rdb.Get(ctx, poolKey(marketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get pool %s: %w", marketID, err)
	}

	var doc poolDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s: %w", marketID, err)
	}

	pool := &domain.Pool{
		Address:  doc.Address,
		MarketID: doc.MarketID,
	}
	if pool.BalancesRaw, err = stringsToBigs(doc.Balances); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s balances: %w", marketID, err)
	}
	if pool.Weights, err = stringsToBigs(doc.Weights); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s weights: %w", marketID, err)
	}
	if pool.Ratios, err = stringsToBigs(doc.Ratios); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s ratios: %w", marketID, err)
	}
	if pool.FeeRaw, err = stringToBig(doc.Fee); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s fee: %w", marketID, err)
	}
	if pool.TotalSupply, err = stringToBig(doc.TotalSupply); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s supply: %w", marketID, err)
	}
	if pool.ShareFactor, err = stringToBig(doc.ShareFactor); err != nil {
		return nil, fmt.Errorf("redis: decode pool %s share factor: %w", marketID, err)
	}
	return pool, nil
}

// SetCashPrice stores the USD price for a collateral symbol. Prices have no
// TTL; stale prices are preferable to missing ones during provider outages.
func (sc *SnapshotCache) SetCashPrice(ctx context.Context, symbol, price string) error {
	if err := sc.rdb.Set(ctx, cashPriceKey(symbol), price, 0).Err(); err != nil {
		return fmt.Errorf("redis: set cash price %s: %w", symbol, err)
	}
	return nil
}

// GetCashPrice returns the cached USD price for a collateral symbol.
func (sc *SnapshotCache) GetCashPrice(ctx context.Context, symbol string) (string, error) {
	price, err := sc.rdb.Get(ctx, cashPriceKey(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis: get cash price %s: %w", symbol, err)
	}
	return price, nil
}

// RecordPositionValue appends a USD valuation observation for one outcome
// position and trims observations past the retention window.
func (sc *SnapshotCache) RecordPositionValue(ctx context.Context, account, marketID string, outcomeID int, usdValue string, at time.Time) error {
	key := positionValueKey(account, marketID, outcomeID)
	score := float64(at.Unix())
	member := strconv.FormatInt(at.Unix(), 10) + ":" + usdValue

	pipe := sc.rdb.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
	horizon := at.Add(-positionValueRetention).Unix()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(horizon, 10))
	pipe.Expire(ctx, key, positionValueRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: record position value %s: %w", key, err)
	}
	return nil
}

// PositionValueBefore returns the most recent valuation recorded at or before
// the cutoff, or domain.ErrNotFound when the history does not reach that far.
func (sc *SnapshotCache) PositionValueBefore(ctx context.Context, account, marketID string, outcomeID int, cutoff time.Time) (string, error) {
	key := positionValueKey(account, marketID, outcomeID)
	members, err := sc.rdb.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    strconv.FormatInt(cutoff.Unix(), 10),
		Offset: 0,
		Count:  1,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("redis: position value before %s: %w", key, err)
	}
	if len(members) == 0 {
		return "", domain.ErrNotFound
	}

	_, value, ok := strings.Cut(members[0], ":")
	if !ok {
		return "", fmt.Errorf("redis: malformed position value entry %q", members[0])
	}
	return value, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
