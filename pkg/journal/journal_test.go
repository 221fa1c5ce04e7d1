package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/supporttools/displaywatcher/pkg/types"
)

var _ types.Exporter = (*Journal)(nil)

// newTestJournal opens an in-memory journal for testing.
func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(context.Background(), types.JournalConfig{
		Enabled:   true,
		Path:      MemoryPath,
		Retention: 24 * time.Hour,
	}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	t.Cleanup(func() {
		j.Close()
	})
	return j
}

func boolPtr(b bool) *bool { return &b }

func report(started time.Time, outcome types.Outcome) *types.RunReport {
	return &types.RunReport{
		StartedAt:        started,
		FinishedAt:       started.Add(250 * time.Millisecond),
		Hostname:         "kiosk-01",
		Outcome:          outcome,
		Healthy:          boolPtr(outcome == types.OutcomeAccepted),
		PreviousAttempts: 1,
		Attempts:         2,
		MaxReboots:       3,
	}
}

func TestOpenValidation(t *testing.T) {
	tests := []struct {
		name   string
		config types.JournalConfig
	}{
		{name: "empty path", config: types.JournalConfig{Retention: time.Hour}},
		{name: "zero retention", config: types.JournalConfig{Path: MemoryPath}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(context.Background(), tt.config, nil); err == nil {
				t.Error("Open() expected error")
			}
		})
	}
}

func TestOpenCreatesSchema(t *testing.T) {
	j := newTestJournal(t)

	var version int
	if err := j.db.QueryRow("SELECT version FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("schema_version should exist: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}

	count, err := j.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}
}

func TestExportRunRoundTrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	j.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }

	started := time.Date(2026, 6, 1, 11, 0, 0, 123456789, time.UTC)
	in := report(started, types.OutcomeRunError)
	in.Healthy = nil
	in.ErrorKind = types.ErrorKindProbe
	in.ErrorMessage = "probe error: run probe: exited with code 1"
	in.DryRun = true

	if err := j.ExportRun(ctx, in); err != nil {
		t.Fatalf("ExportRun() error = %v", err)
	}

	runs, err := j.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("RecentRuns() returned %d rows, want 1", len(runs))
	}

	got := runs[0]
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if got.Duration() != 250*time.Millisecond {
		t.Errorf("Duration() = %v", got.Duration())
	}
	if got.Outcome != types.OutcomeRunError || got.Hostname != "kiosk-01" {
		t.Errorf("record = %+v", got)
	}
	if got.Healthy != nil {
		t.Error("Healthy should be NULL")
	}
	if got.ErrorKind != "probe" || got.ErrorMessage != in.ErrorMessage {
		t.Errorf("error = %q / %q", got.ErrorKind, got.ErrorMessage)
	}
	if got.PreviousAttempts != 1 || got.Attempts != 2 || got.MaxReboots != 3 || !got.DryRun {
		t.Errorf("record = %+v", got)
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	base := time.Now()

	outcomes := []types.Outcome{types.OutcomeRetriedReboot, types.OutcomeRetriedReboot, types.OutcomeGaveUp, types.OutcomeAccepted}
	for i, outcome := range outcomes {
		if err := j.ExportRun(ctx, report(base.Add(time.Duration(i)*time.Minute), outcome)); err != nil {
			t.Fatalf("ExportRun() error = %v", err)
		}
	}

	runs, err := j.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("RecentRuns() returned %d rows, want 2", len(runs))
	}
	if runs[0].Outcome != types.OutcomeAccepted || runs[1].Outcome != types.OutcomeGaveUp {
		t.Errorf("order = %s, %s; want newest first", runs[0].Outcome, runs[1].Outcome)
	}
	if runs[0].Healthy == nil || !*runs[0].Healthy {
		t.Error("accepted run should be stored as healthy")
	}

	if _, err := j.RecentRuns(ctx, 0); err == nil {
		t.Error("RecentRuns(0) should fail")
	}
}

func TestCleanupRetention(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	old := report(now.Add(-48*time.Hour), types.OutcomeAccepted)
	recent := report(now.Add(-time.Hour), types.OutcomeAccepted)

	if err := j.insert(ctx, old); err != nil {
		t.Fatalf("insert() error = %v", err)
	}
	if err := j.ExportRun(ctx, recent); err != nil {
		t.Fatalf("ExportRun() error = %v", err)
	}

	count, err := j.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after pruning", count)
	}

	deleted, err := j.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("Cleanup() deleted %d, want 0", deleted)
	}
}

func TestFileJournalPersists(t *testing.T) {
	ctx := context.Background()
	config := types.JournalConfig{
		Enabled:   true,
		Path:      filepath.Join(t.TempDir(), "nested", "journal.db"),
		Retention: 720 * time.Hour,
	}

	j, err := Open(ctx, config, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if j.Path() != config.Path {
		t.Errorf("Path() = %q", j.Path())
	}
	if err := j.ExportRun(ctx, report(time.Now(), types.OutcomeAccepted)); err != nil {
		t.Fatalf("ExportRun() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(ctx, config, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestClosedJournal(t *testing.T) {
	j := newTestJournal(t)
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	ctx := context.Background()
	if err := j.ExportRun(ctx, report(time.Now(), types.OutcomeAccepted)); err == nil {
		t.Error("ExportRun() on a closed journal should fail")
	}
	if _, err := j.RecentRuns(ctx, 1); err == nil {
		t.Error("RecentRuns() on a closed journal should fail")
	}
	if _, err := j.Count(ctx); err == nil {
		t.Error("Count() on a closed journal should fail")
	}
}

func TestExportRunNilReport(t *testing.T) {
	j := newTestJournal(t)
	if err := j.ExportRun(context.Background(), nil); err == nil {
		t.Error("ExportRun(nil) should fail")
	}
}
