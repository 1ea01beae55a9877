package checkout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/dailyfresh-orders/internal/checkout"
	"github.com/ariefcatur/dailyfresh-orders/internal/memledger"
	"github.com/ariefcatur/dailyfresh-orders/internal/orders"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Untuk sembarang stok awal dan kumpulan order bersamaan: stok tidak pernah
// negatif, dan stok akhir + total terjual == stok awal.
func TestProperty_StockConserved(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 40
	properties := gopter.NewProperties(params)

	check := func(r checkout.Reserver) func(initial int, qtys []int) bool {
		return func(initial int, qtys []int) bool {
			led := memledger.New()
			led.PutSKU(orders.SKU{ID: "apple", UnitPrice: decimal.NewFromInt(3), Stock: initial})
			led.PutAddress("a1", "u1")
			eng := &checkout.Engine{Ledger: led, Reserver: r}

			var wg sync.WaitGroup
			for _, q := range qtys {
				wg.Add(1)
				go func(q int) {
					defer wg.Done()
					_, _ = eng.CommitOrder(context.Background(), checkout.CommitRequest{
						BuyerID: "u1", AddressID: "a1", PaymentMethod: orders.PayCashOnDelivery,
						Lines: []orders.LineRequest{{SKUID: "apple", Quantity: q}},
					})
				}(q)
			}
			wg.Wait()

			sku, err := led.ReadSKU(context.Background(), "apple")
			if err != nil || sku.Stock < 0 {
				return false
			}
			sold := 0
			for _, o := range led.Orders() {
				sold += o.TotalCount
			}
			return sku.Stock+sku.Sales == initial && sold == sku.Sales
		}
	}

	properties.Property("locking conserves stock", prop.ForAll(
		check(checkout.Locking{}),
		gen.IntRange(0, 20),
		gen.SliceOfN(8, gen.IntRange(1, 6)),
	))
	properties.Property("optimistic conserves stock", prop.ForAll(
		check(checkout.Optimistic{Policy: checkout.RetryPolicy{MaxAttempts: 50}}),
		gen.IntRange(0, 20),
		gen.SliceOfN(8, gen.IntRange(1, 6)),
	))

	properties.TestingRun(t)
}

var propSKUs = []string{"apple", "pear", "kiwi"}

// urutan baris: semua permutasi tiga posisi
var linePerms = [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

// Order multi-baris dengan urutan SKU acak tidak saling mengunci: tidak ada
// yang timeout, stok tiap SKU tetap konsisten, dan kalau ada order yang muat
// di stok awal, minimal satu order ter-commit.
func TestProperty_MultiLineOrdersMakeProgress(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 30
	properties := gopter.NewProperties(params)

	check := func(r checkout.Reserver) func(initial []int, qtys [][]int, perms []int) bool {
		return func(initial []int, qtys [][]int, perms []int) bool {
			if len(initial) != len(propSKUs) || len(perms) < len(qtys) {
				return true // hasil shrink yang tidak lengkap
			}
			led := memledger.New()
			for i, id := range propSKUs {
				led.PutSKU(orders.SKU{ID: id, UnitPrice: decimal.NewFromInt(int64(i + 1)), Stock: initial[i]})
			}
			led.PutAddress("a1", "u1")
			eng := &checkout.Engine{Ledger: led, Reserver: r}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			satisfiable := false
			reqs := make([]checkout.CommitRequest, len(qtys))
			for i, q := range qtys {
				if len(q) != len(propSKUs) {
					return true
				}
				n := 2 + i%2
				fits := true
				var lines []orders.LineRequest
				for _, pos := range linePerms[perms[i]][:n] {
					lines = append(lines, orders.LineRequest{SKUID: propSKUs[pos], Quantity: q[pos]})
					fits = fits && q[pos] <= initial[pos]
				}
				satisfiable = satisfiable || fits
				reqs[i] = checkout.CommitRequest{
					BuyerID: "u1", AddressID: "a1", PaymentMethod: orders.PayCashOnDelivery, Lines: lines,
				}
			}

			errs := make([]error, len(reqs))
			var wg sync.WaitGroup
			for i := range reqs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = eng.CommitOrder(ctx, reqs[i])
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				if err == nil {
					continue
				}
				switch checkout.KindOf(err) {
				case checkout.KindInsufficientStock, checkout.KindConcurrentUpdateExhausted:
				default:
					return false
				}
			}

			committed := led.Orders()
			sold := map[string]int{}
			for _, o := range committed {
				for _, l := range o.Lines {
					sold[l.SKUID] += l.Quantity
				}
			}
			for i, id := range propSKUs {
				sku, err := led.ReadSKU(context.Background(), id)
				if err != nil || sku.Stock < 0 || sku.Stock+sku.Sales != initial[i] || sold[id] != sku.Sales {
					return false
				}
			}
			return !satisfiable || len(committed) > 0
		}
	}

	for name, r := range map[string]checkout.Reserver{
		"locking":    checkout.Locking{},
		"optimistic": checkout.Optimistic{Policy: checkout.RetryPolicy{MaxAttempts: 50}},
	} {
		properties.Property(name+" multi-line orders progress", prop.ForAll(
			check(r),
			gen.SliceOfN(3, gen.IntRange(0, 15)),
			gen.SliceOfN(6, gen.SliceOfN(3, gen.IntRange(1, 4))),
			gen.SliceOfN(6, gen.IntRange(0, len(linePerms)-1)),
		))
	}

	properties.TestingRun(t)
}
