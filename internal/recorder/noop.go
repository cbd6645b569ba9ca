package recorder

import (
	"context"

	"fintwin/internal/game"
)

// NoopRecorder is used when no history database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTurn(context.Context, game.TurnRecord) error       { return nil }
func (n *NoopRecorder) RecordOutcome(context.Context, game.OutcomeRecord) error { return nil }
func (n *NoopRecorder) Close() error                                            { return nil }
