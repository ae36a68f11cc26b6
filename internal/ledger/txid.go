package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const txnAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newTransactionID builds TXN-<unix millis>-<6 random alphanumerics>.
func newTransactionID(now time.Time) string {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(txnAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(txnAlphabet)))
		}
		suffix[i] = txnAlphabet[n.Int64()]
	}
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), suffix)
}
