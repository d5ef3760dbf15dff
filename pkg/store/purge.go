package store

import (
	"context"
	"fmt"
	"time"
)

const purgeDateLayout = "2006-01-02"

// PurgeResult describes one PurgeDaily call.
type PurgeResult struct {
	Ran     bool
	Removed int
	Date    string
}

// PurgeDaily removes expired entries of every project in kv, at most once per
// UTC calendar day. The last purge date is recorded under
// KeyExpiredDataPurgeDate without expiry.
func PurgeDaily(ctx context.Context, kv KeyStore, now time.Time) (PurgeResult, error) {
	today := now.UTC().Format(purgeDateLayout)
	res := PurgeResult{Date: today}

	last, ok, err := kv.Get(ctx, KeyExpiredDataPurgeDate)
	if err != nil {
		return res, fmt.Errorf("reading purge date: %w", err)
	}
	if ok && string(last) == today {
		return res, nil
	}

	n, err := kv.PurgeExpired(ctx, now)
	if err != nil {
		return res, err
	}
	res.Ran = true
	res.Removed = n

	if err := kv.Set(ctx, KeyExpiredDataPurgeDate, []byte(today), time.Time{}); err != nil {
		return res, fmt.Errorf("recording purge date: %w", err)
	}
	return res, nil
}
