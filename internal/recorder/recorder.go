package recorder

import (
	"context"

	"fintwin/internal/game"
)

// Recorder keeps a history of played turns and finished games.
type Recorder interface {
	RecordTurn(ctx context.Context, rec game.TurnRecord) error
	RecordOutcome(ctx context.Context, rec game.OutcomeRecord) error
	Close() error
}
