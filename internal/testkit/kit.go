package testkit

import (
	"context"
	"sync"

	"eventcast/domain/core"
	"eventcast/domain/forecast"
	"eventcast/domain/run"
	"eventcast/ports"
)

// TestKit bundles an in-memory table source and report sink
type TestKit struct {
	source *InMemoryTableSource
	sink   *InMemoryReportSink
}

// NewTestKit creates a test kit over the Ethiopia sample tables
func NewTestKit() *TestKit {
	return NewTestKitWithTables(EthiopiaTables())
}

// NewTestKitWithTables creates a test kit over the given tables
func NewTestKitWithTables(tables *forecast.Tables) *TestKit {
	return &TestKit{
		source: NewInMemoryTableSource(tables),
		sink:   NewInMemoryReportSink(),
	}
}

// TableSource returns the kit's source
func (k *TestKit) TableSource() ports.TableSourcePort {
	return k.source
}

// Source returns the concrete source, for inspecting load counts
func (k *TestKit) Source() *InMemoryTableSource {
	return k.source
}

// ReportSink returns the kit's sink
func (k *TestKit) ReportSink() *InMemoryReportSink {
	return k.sink
}

// InMemoryTableSource implements TableSourcePort over fixed tables. Every
// load returns a fresh copy.
type InMemoryTableSource struct {
	tables *forecast.Tables
	err    error
	loads  int
	mu     sync.Mutex
}

func NewInMemoryTableSource(tables *forecast.Tables) *InMemoryTableSource {
	return &InMemoryTableSource{tables: tables}
}

// FailWith makes subsequent loads return err
func (s *InMemoryTableSource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *InMemoryTableSource) LoadTables(ctx context.Context) (*forecast.Tables, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.tables.Clone(), nil
}

// Loads returns how many times LoadTables was called
func (s *InMemoryTableSource) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// InMemoryReportSink implements ResultSinkPort with in-memory storage
type InMemoryReportSink struct {
	reports map[core.RunID]*run.Report
	order   []core.RunID
	mu      sync.RWMutex
}

func NewInMemoryReportSink() *InMemoryReportSink {
	return &InMemoryReportSink{reports: make(map[core.RunID]*run.Report)}
}

func (s *InMemoryReportSink) WriteReport(ctx context.Context, report *run.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var id core.RunID
	if report.Manifest != nil {
		id = report.Manifest.RunID
	}
	if _, seen := s.reports[id]; !seen {
		s.order = append(s.order, id)
	}
	s.reports[id] = report
	return nil
}

// Report returns a stored report by run ID
func (s *InMemoryReportSink) Report(id core.RunID) (*run.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	return r, ok
}

// Reports returns every stored report in write order
func (s *InMemoryReportSink) Reports() []*run.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*run.Report, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id])
	}
	return out
}
