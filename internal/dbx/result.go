package dbx

import (
	"database/sql"
	"fmt"

	"github.com/nulldatamap/xthevent/internal/common"
)

// Affected returns the number of rows res changed.
func Affected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// ExpectOne checks that res changed exactly one row. Zero rows is
// common.ErrNotFound; more than one is common.ErrInvariantViolation.
func ExpectOne(res sql.Result) error {
	n, err := Affected(res)
	if err != nil {
		return err
	}
	switch {
	case n == 0:
		return common.ErrNotFound
	case n > 1:
		return fmt.Errorf("%w: %d rows affected", common.ErrInvariantViolation, n)
	}
	return nil
}
