package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	transient := errors.New("connection refused")
	permanent := errors.New("wrong password")

	tests := []struct {
		name      string
		failures  int
		err       error
		wantCalls int
		wantErr   error
	}{
		{"first try", 0, nil, 1, nil},
		{"recovers", 2, transient, 3, nil},
		{"gives up", 5, transient, 3, transient},
		{"not retryable", 5, permanent, 1, permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := retry(context.Background(), 3, time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					if tt.err == transient {
						return &retryableError{tt.err}
					}
					return tt.err
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if err != tt.wantErr {
				t.Errorf("retry() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry(ctx, 3, time.Hour, func() error {
		return &retryableError{errors.New("down")}
	})
	if err != context.Canceled {
		t.Errorf("retry() error = %v, want context.Canceled", err)
	}
}
