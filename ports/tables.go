package ports

import (
	"context"

	"eventcast/domain/forecast"
	"eventcast/domain/run"
)

// TableSourcePort loads the engine's input tables. Implementations coerce
// raw cells at the boundary and report unparseable values as conversion
// errors.
type TableSourcePort interface {
	LoadTables(ctx context.Context) (*forecast.Tables, error)
}

// ResultSinkPort persists or publishes a finished run
type ResultSinkPort interface {
	WriteReport(ctx context.Context, report *run.Report) error
}
