package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewOrderID: timestamp detik + buyer id + suffix acak, supaya dua order dari
// buyer yang sama di detik yang sama tidak bentrok.
func NewOrderID(now time.Time, buyerID string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.Format("20060102150405") + buyerID + "-" + suffix
}
