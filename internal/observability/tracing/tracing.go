package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InjectRunID attaches logger to the context tagged with a fresh run id, so
// every log line of one simulator run can be correlated.
func InjectRunID(ctx context.Context, logger zerolog.Logger) context.Context {
	id := uuid.New().String()
	tagged := logger.With().Str("runId", id).Logger()
	return tagged.WithContext(ctx)
}
