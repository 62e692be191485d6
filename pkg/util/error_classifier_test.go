package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsRetryableError(t *testing.T) {
	var syntaxErr error
	{
		var v map[string]any
		syntaxErr = json.Unmarshal([]byte("{bad"), &v)
	}

	tests := []struct {
		name      string
		err       error
		retryable bool
		kind      string
	}{
		{"nil", nil, false, ""},
		{"json", fmt.Errorf("decode: %w", syntaxErr), false, "json_decode_error"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"deadline", fmt.Errorf("wrap: %w", context.DeadlineExceeded), true, "timeout"},
		{"no rows", pgx.ErrNoRows, false, "not_found"},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, false, "duplicate_key"},
		{"fk", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, false, "foreign_key_violation"},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation}, false, "constraint_violation"},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, true, "db_transient_error"},
		{"admin shutdown", &pgconn.PgError{Code: pgerrcode.AdminShutdown}, true, "db_transient_error"},
		{"net", &net.OpError{Op: "dial", Err: errors.New("refused")}, true, "network_error"},
		{"refused text", errors.New("dial tcp: connection refused"), true, "db_connection_error"},
		{"unknown", errors.New("something else"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, kind := IsRetryableError(tt.err)
			assert.Equal(t, tt.retryable, retryable)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestShouldRetry(t *testing.T) {
	assert.False(t, ShouldRetry(1, 3, false))
	assert.True(t, ShouldRetry(3, 3, true))
	assert.False(t, ShouldRetry(4, 3, true))
}

func TestFormatKeys(t *testing.T) {
	assert.Equal(t, "dedup:activity:abc", FormatDedupKey("activity", "abc"))
	assert.Equal(t, "retry:activity:abc", FormatRetryKey("activity", "abc"))
}
