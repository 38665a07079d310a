package bootstrap_test

import (
	"context"
	"testing"

	"go-timeoff/internal/bootstrap"
	"go-timeoff/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	var logger bootstrap.AuditLogger = bootstrap.NewStdoutAuditLogger(zap.New(core))
	logger.Log(context.Background(), bootstrap.AuditLog{
		Action:  "SERVER_SHUTDOWN",
		Message: "Time-off API is shutting down",
		Meta:    map[string]any{"signal": "terminated"},
	})

	entries := logs.FilterMessage("audit event").All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "audit", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "SERVER_SHUTDOWN", fields["action"])
	assert.NotContains(t, fields, "request_id")
}

func TestStdoutAuditLogger_CarriesRequestContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := bootstrap.NewStdoutAuditLogger(zap.New(core))

	ctx := contextutil.WithRequestID(context.Background(), "rid-9")
	ctx = contextutil.WithUserID(ctx, "emp-1")
	logger.Log(ctx, bootstrap.AuditLog{Action: "SERVER_START", Message: "Time-off API started"})

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "rid-9", fields["request_id"])
	assert.Equal(t, "emp-1", fields["actor_id"])
	assert.NotContains(t, fields, "meta")
}
