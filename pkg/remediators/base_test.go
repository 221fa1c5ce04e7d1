package remediators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// mockLogger implements the Logger interface for testing
type mockLogger struct {
	infoMessages  []string
	warnMessages  []string
	errorMessages []string
	mu            sync.Mutex
}

func (m *mockLogger) Infof(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMessages = append(m.infoMessages, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Warnf(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMessages = append(m.warnMessages, fmt.Sprintf(format, args...))
}

func (m *mockLogger) Errorf(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMessages = append(m.errorMessages, fmt.Sprintf(format, args...))
}

func (m *mockLogger) contains(messages []string, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range messages {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func TestNewBaseRemediator(t *testing.T) {
	if _, err := NewBaseRemediator(""); err == nil {
		t.Error("expected error for empty name")
	}

	b, err := NewBaseRemediator("test")
	if err != nil {
		t.Fatalf("NewBaseRemediator() error = %v", err)
	}
	if b.GetName() != "test" {
		t.Errorf("GetName() = %q, want \"test\"", b.GetName())
	}
}

func TestSetRecoverFuncNil(t *testing.T) {
	b, _ := NewBaseRemediator("test")
	if err := b.SetRecoverFunc(nil); err == nil {
		t.Error("SetRecoverFunc(nil) should fail")
	}
}

func TestBaseRecover(t *testing.T) {
	tests := []struct {
		name        string
		fn          RecoverFunc
		cancelled   bool
		wantErr     bool
		errContains string
		wantLog     string
	}{
		{
			name:    "success",
			fn:      func(ctx context.Context) error { return nil },
			wantLog: "Recovery action issued",
		},
		{
			name:        "failure",
			fn:          func(ctx context.Context) error { return errors.New("boom") },
			wantErr:     true,
			errContains: "boom",
			wantLog:     "Recovery failed",
		},
		{
			name:        "panic",
			fn:          func(ctx context.Context) error { panic("kaboom") },
			wantErr:     true,
			errContains: "panic during recovery",
			wantLog:     "Panic recovered",
		},
		{
			name:        "cancelled context",
			fn:          func(ctx context.Context) error { t.Error("must not run"); return nil },
			cancelled:   true,
			wantErr:     true,
			errContains: "context cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &mockLogger{}
			b, _ := NewBaseRemediator("test")
			b.SetLogger(log)
			if err := b.SetRecoverFunc(tt.fn); err != nil {
				t.Fatalf("SetRecoverFunc() error = %v", err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancelled {
				cancel()
			} else {
				defer cancel()
			}

			err := b.Recover(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Recover() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Recover() error = %v, want it to contain %q", err, tt.errContains)
			}
			if tt.wantLog != "" {
				all := append(append(append([]string(nil), log.infoMessages...), log.warnMessages...), log.errorMessages...)
				if !log.contains(all, tt.wantLog) {
					t.Errorf("expected a log message containing %q, got %v", tt.wantLog, all)
				}
			}
		})
	}
}

func TestBaseRecoverWithoutFunc(t *testing.T) {
	b, _ := NewBaseRemediator("test")
	if err := b.Recover(context.Background()); err == nil {
		t.Error("Recover() without a recover func should fail")
	}
}

func TestBaseRecoverWithoutLogger(t *testing.T) {
	b, _ := NewBaseRemediator("test")
	_ = b.SetRecoverFunc(func(ctx context.Context) error { return errors.New("x") })

	if err := b.Recover(context.Background()); err == nil {
		t.Error("expected error")
	}
}
