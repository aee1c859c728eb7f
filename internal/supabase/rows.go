package supabase

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const (
	TableCustomers = "customers"
	TableLoans     = "loans"
	TableGroups    = "groups"
	TableTemplates = "loan_templates"
)

type validator interface {
	Validate() error
}

// decodeRows unmarshals a PostgREST array. Rows that fail to decode or
// validate are logged and dropped.
func decodeRows[T validator](logger *zap.Logger, table string, resp *Response) ([]T, error) {
	var raw []json.RawMessage
	if err := resp.JSON(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUpstream, table, err)
	}

	rows := make([]T, 0, len(raw))
	for i, msg := range raw {
		var row T
		if err := json.Unmarshal(msg, &row); err != nil {
			logger.Warn("dropping malformed row",
				zap.String("table", table),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		if err := row.Validate(); err != nil {
			logger.Warn("dropping invalid row",
				zap.String("table", table),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// decodeOne returns the first valid row, or ErrNotFound.
func decodeOne[T validator](logger *zap.Logger, table string, resp *Response) (T, error) {
	var zero T
	rows, err := decodeRows[T](logger, table, resp)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNotFound
	}
	return rows[0], nil
}

// expectAffected turns an empty representation into ErrNotFound.
func expectAffected(resp *Response) error {
	var rows []json.RawMessage
	if err := resp.JSON(&rows); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
