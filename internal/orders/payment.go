package orders

import "strconv"

type PaymentMethod int

const (
	PayCashOnDelivery PaymentMethod = 1
	PayWeChat         PaymentMethod = 2
	PayAlipay         PaymentMethod = 3
	PayUnionPay       PaymentMethod = 4
)

var paymentNames = map[PaymentMethod]string{
	PayCashOnDelivery: "CASH_ON_DELIVERY",
	PayWeChat:         "WECHAT_PAY",
	PayAlipay:         "ALIPAY",
	PayUnionPay:       "UNIONPAY",
}

func (m PaymentMethod) Valid() bool {
	_, ok := paymentNames[m]
	return ok
}

func (m PaymentMethod) String() string {
	if n, ok := paymentNames[m]; ok {
		return n
	}
	return "UNKNOWN"
}

// ParsePaymentMethod menerima kode form ("1".."4"). String kosong -> 0 (tidak
// diisi); input non-angka -> -1, supaya tetap terdeteksi sebagai metode invalid.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return -1, false
	}
	m := PaymentMethod(n)
	return m, m.Valid()
}
