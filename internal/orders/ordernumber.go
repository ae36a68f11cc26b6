package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// newOrderNumber builds ORD-<unix millis>-<4 digits>.
func newOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}
	return fmt.Sprintf("ORD-%d-%04d", now.UnixMilli(), n.Int64())
}
