package sheets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		err           error
		name          string
		wantRateLimit bool
		wantPermanent bool
	}{
		{name: "plain error", err: errors.New("connection reset")},
		{name: "quota", err: &googleapi.Error{Code: 429}, wantRateLimit: true},
		{name: "not found", err: &googleapi.Error{Code: 404}, wantPermanent: true},
		{name: "server error", err: &googleapi.Error{Code: 503}},
		{name: "wrapped permission error", err: fmt.Errorf("batch 1: %w", &googleapi.Error{Code: 403}), wantPermanent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			assert.ErrorIs(t, got, tt.err)
			assert.Equal(t, tt.wantRateLimit, errors.Is(got, common.ErrRateLimit))

			var retryable *common.RetryableError
			permanent := errors.As(got, &retryable) && !retryable.Retryable
			assert.Equal(t, tt.wantPermanent, permanent)
		})
	}
}

func TestClassifyAPIError_StopsRetries(t *testing.T) {
	attempts := 0
	err := common.WithRetry(context.Background(), func() error {
		attempts++
		return classifyAPIError(&googleapi.Error{Code: 400})
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
