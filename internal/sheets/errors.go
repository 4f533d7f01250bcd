package sheets

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Veraticus/pantry-intelligence/internal/common"
	"google.golang.org/api/googleapi"
)

// classifyAPIError marks Sheets API failures for common.WithRetry. Quota errors wait
// the maximum delay and other client errors are not retried.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if err == nil || !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return &common.RetryableError{Err: err, Retryable: false}
	default:
		return err
	}
}
