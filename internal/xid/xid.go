package xid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// NewTransactionID composes a durable transaction id from the store id and
// the commit timestamp. The random suffix keeps ids collision-safe when two
// commits land in the same second for the same store.
func NewTransactionID(storeID string, at time.Time) string {
	buf := make([]byte, 3)
	suffix := fmt.Sprintf("%d", at.UnixNano()%1000)
	if _, err := rand.Read(buf); err == nil {
		suffix = hex.EncodeToString(buf)
	}
	return fmt.Sprintf("%s-%s-%s", storeID, at.UTC().Format("20060102-150405"), suffix)
}
