package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// SKU adalah baris katalog: harga, stok dan jumlah terjual.
type SKU struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
	Sales     int
}

type CartLine struct {
	SKUID    string `json:"sku_id"`
	Quantity int    `json:"quantity"`
}

// LineRequest adalah satu baris checkout: sku + qty yang diminta pembeli.
type LineRequest struct {
	SKUID    string `json:"sku_id"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID             string
	BuyerID        string
	AddressID      string
	PaymentMethod  PaymentMethod
	TotalCount     int
	TotalPrice     decimal.Decimal
	ShippingFee    decimal.Decimal
	Status         Status // lihat status.go
	PaymentTradeNo *string
	Lines          []OrderLine
	CreatedAt      time.Time
}

// AmountPayable = total harga barang + ongkir.
func (o Order) AmountPayable() decimal.Decimal {
	return o.TotalPrice.Add(o.ShippingFee)
}

type OrderLine struct {
	OrderID   string
	SKUID     string
	Quantity  int
	UnitPrice decimal.Decimal // snapshot harga saat beli, immutable
	Review    *string
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cents/FromCents: harga disimpan sebagai integer sen di storage.
func Cents(d decimal.Decimal) int64 { return d.Shift(2).Round(0).IntPart() }

func FromCents(c int64) decimal.Decimal { return decimal.New(c, -2) }
