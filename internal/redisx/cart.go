package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// CartStore menyimpan cart tiap buyer sebagai hash: cart_{buyer} -> sku_id: qty.
type CartStore struct {
	Redis redis.Cmdable
}

func cartKey(buyerID string) string { return fmt.Sprintf(KeyCart, buyerID) }

func (c *CartStore) GetAll(ctx context.Context, buyerID string) (map[string]int, error) {
	raw, err := c.Redis.HGetAll(ctx, cartKey(buyerID)).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for sku, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("cart %s: bad quantity %q for sku %s", buyerID, v, sku)
		}
		out[sku] = n
	}
	return out, nil
}

// Get mengembalikan 0 kalau sku belum ada di cart.
func (c *CartStore) Get(ctx context.Context, buyerID, skuID string) (int, error) {
	n, err := c.Redis.HGet(ctx, cartKey(buyerID), skuID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *CartStore) Set(ctx context.Context, buyerID, skuID string, qty int) error {
	return c.Redis.HSet(ctx, cartKey(buyerID), skuID, qty).Err()
}

func (c *CartStore) Delete(ctx context.Context, buyerID string, skuIDs ...string) error {
	if len(skuIDs) == 0 {
		return nil
	}
	return c.Redis.HDel(ctx, cartKey(buyerID), skuIDs...).Err()
}

// hapus field hanya kalau qty-nya masih sama dengan yang di-checkout.
var deleteIfQty = redis.NewScript(`
local n = 0
for i = 1, #ARGV, 2 do
  if redis.call('HGET', KEYS[1], ARGV[i]) == ARGV[i + 1] then
    n = n + redis.call('HDEL', KEYS[1], ARGV[i])
  end
end
return n
`)

// DeleteIfUnchanged menghapus sku yang qty-nya masih persis want[sku].
// SKU yang sudah diubah / ditambah lagi oleh buyer dibiarkan. Return jumlah yang dihapus.
func (c *CartStore) DeleteIfUnchanged(ctx context.Context, buyerID string, want map[string]int) (int, error) {
	if len(want) == 0 {
		return 0, nil
	}
	args := make([]any, 0, 2*len(want))
	for sku, qty := range want {
		args = append(args, sku, strconv.Itoa(qty))
	}
	n, err := deleteIfQty.Run(ctx, c.Redis, []string{cartKey(buyerID)}, args...).Int()
	return n, err
}

// Count = jumlah baris (sku) di cart, bukan total qty.
func (c *CartStore) Count(ctx context.Context, buyerID string) (int, error) {
	n, err := c.Redis.HLen(ctx, cartKey(buyerID)).Result()
	return int(n), err
}
