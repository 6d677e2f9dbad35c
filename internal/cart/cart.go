// Package cart keeps each user's cart server-side in Redis, together with the
// idempotency keys that make checkout retry-safe.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/01moynul/sportshop-golang/internal/apperr"
	"github.com/01moynul/sportshop-golang/internal/models"
	"github.com/redis/go-redis/v9"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 99

const idempotencyTTL = 24 * time.Hour

// adjustLineScript changes one line atomically and refreshes the cart TTL.
// KEYS[1] = items hash, KEYS[2] = meta hash
// ARGV[1] = line field, ARGV[2] = quantity, ARGV[3] = "add" | "set"
// ARGV[4] = ttl seconds, ARGV[5] = max quantity, ARGV[6] = unix time
// Returns the new quantity, -1 when over the cap, -2 when "set" targets a
// missing line.
var adjustLineScript = redis.NewScript(`
local field = ARGV[1]
local qty = tonumber(ARGV[2])

if ARGV[3] == "add" then
    qty = qty + tonumber(redis.call("HGET", KEYS[1], field) or "0")
elseif redis.call("HEXISTS", KEYS[1], field) == 0 then
    return -2
end

if qty > tonumber(ARGV[5]) then
    return -1
end

if qty <= 0 then
    redis.call("HDEL", KEYS[1], field)
    qty = 0
else
    redis.call("HSET", KEYS[1], field, qty)
end

redis.call("HSET", KEYS[2], "updated_at", ARGV[6])
redis.call("EXPIRE", KEYS[1], ARGV[4])
redis.call("EXPIRE", KEYS[2], ARGV[4])
return qty
`)

var (
	ErrLineNotFound = apperr.NotFound("cart_item_not_found", "item is not in the cart")
	ErrQuantityCap  = apperr.Validation("quantity_too_large",
		fmt.Sprintf("at most %d units of one item per order", MaxLineQuantity))
)

type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func New(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

// NewClient builds the Redis client from connection settings.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func itemsKey(userID int64) string { return fmt.Sprintf("cart:%d:items", userID) }
func metaKey(userID int64) string  { return fmt.Sprintf("cart:%d:meta", userID) }

// Get returns the user's cart; a missing cart is an empty one.
func (s *Store) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	fields, err := s.client.HGetAll(ctx, itemsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cart items: %w", err)
	}
	meta, err := s.client.HGetAll(ctx, metaKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis cart meta: %w", err)
	}

	c := &models.Cart{UserID: userID, Items: []models.CartItem{}, CouponCode: meta["coupon"]}
	if ts, err := strconv.ParseInt(meta["updated_at"], 10, 64); err == nil {
		c.UpdatedAt = time.Unix(ts, 0).UTC()
	}

	for field, raw := range fields {
		item, err := parseField(field)
		if err != nil {
			continue // foreign field, ignore
		}
		if item.Quantity, err = strconv.Atoi(raw); err != nil || item.Quantity <= 0 {
			continue
		}
		c.Items = append(c.Items, item)
	}
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].Key() < c.Items[j].Key() })
	return c, nil
}

// AddItem adds quantity units of the line, merging with an existing line.
func (s *Store) AddItem(ctx context.Context, userID int64, item models.CartItem) (*models.Cart, error) {
	if item.Quantity <= 0 {
		return nil, apperr.Validation("invalid_quantity", "quantity must be positive")
	}
	if err := s.adjust(ctx, userID, item.Key(), item.Quantity, "add"); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// SetQuantity replaces the quantity of an existing line; zero removes it.
func (s *Store) SetQuantity(ctx context.Context, userID, variantID int64, size string, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, apperr.Validation("invalid_quantity", "quantity cannot be negative")
	}
	key := models.CartItem{VariantID: variantID, Size: size}.Key()
	if err := s.adjust(ctx, userID, key, quantity, "set"); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// RemoveItem deletes a line.
func (s *Store) RemoveItem(ctx context.Context, userID, variantID int64, size string) (*models.Cart, error) {
	return s.SetQuantity(ctx, userID, variantID, size, 0)
}

func (s *Store) adjust(ctx context.Context, userID int64, field string, qty int, mode string) error {
	keys := []string{itemsKey(userID), metaKey(userID)}
	res, err := adjustLineScript.Run(ctx, s.client, keys,
		field, qty, mode, int(s.ttl.Seconds()), MaxLineQuantity, s.now().Unix()).Int()
	if err != nil {
		return fmt.Errorf("redis cart update: %w", err)
	}
	switch res {
	case -1:
		return ErrQuantityCap
	case -2:
		return ErrLineNotFound
	}
	return nil
}

// SetCoupon remembers the coupon code the user entered; empty clears it.
func (s *Store) SetCoupon(ctx context.Context, userID int64, code string) error {
	key := metaKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if code == "" {
			pipe.HDel(ctx, key, "coupon")
		} else {
			pipe.HSet(ctx, key, "coupon", strings.ToUpper(strings.TrimSpace(code)))
		}
		pipe.HSet(ctx, key, "updated_at", s.now().Unix())
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis cart coupon: %w", err)
	}
	return nil
}

// Clear empties the cart after a successful checkout.
func (s *Store) Clear(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, itemsKey(userID), metaKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis cart clear: %w", err)
	}
	return nil
}

func idempotencyKey(userID int64, key string) string {
	return fmt.Sprintf("checkout:idem:%d:%s", userID, key)
}

// ClaimCheckout binds an Idempotency-Key to orderID. If the key was already
// claimed it returns the order id bound to it and claimed=false.
func (s *Store) ClaimCheckout(ctx context.Context, userID int64, key, orderID string) (existing string, claimed bool, err error) {
	k := idempotencyKey(userID, key)
	ok, err := s.client.SetNX(ctx, k, orderID, idempotencyTTL).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis idempotency claim: %w", err)
	}
	if ok {
		return orderID, true, nil
	}

	existing, err = s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Released between SETNX and GET; the caller may retry.
		return "", false, apperr.Conflict("checkout_in_progress", "checkout is already in progress")
	}
	if err != nil {
		return "", false, fmt.Errorf("redis idempotency lookup: %w", err)
	}
	return existing, false, nil
}

// ReleaseCheckout frees a key whose checkout failed before an order existed.
func (s *Store) ReleaseCheckout(ctx context.Context, userID int64, key string) error {
	return s.client.Del(ctx, idempotencyKey(userID, key)).Err()
}

func parseField(field string) (models.CartItem, error) {
	idPart, size, _ := strings.Cut(field, ":")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return models.CartItem{}, err
	}
	return models.CartItem{VariantID: id, Size: size}, nil
}
