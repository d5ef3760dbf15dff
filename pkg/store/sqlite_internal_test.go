package store

import (
	"errors"
	"testing"
)

type result struct {
	n   int64
	err error
}

func (r result) LastInsertId() (int64, error) { return 0, nil }
func (r result) RowsAffected() (int64, error) { return r.n, r.err }

func TestPurged(t *testing.T) {
	if n, err := purged(result{n: 3}); n != 3 || err != nil {
		t.Errorf("purged = %d, %v", n, err)
	}

	errCount := errors.New("driver cannot count rows")
	if n, err := purged(result{n: 3, err: errCount}); n != 0 || !errors.Is(err, errCount) {
		t.Errorf("purged with failing count = %d, %v", n, err)
	}
}
