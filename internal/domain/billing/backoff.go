package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxRetryAttempts caps retry_count; payments at the cap need manual action.
const MaxRetryAttempts = 3

// retryBackoff is indexed by the payment's current retry_count.
var retryBackoff = []time.Duration{0, 6 * time.Hour, 24 * time.Hour}

func BackoffFor(retryCount int) time.Duration {
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount >= len(retryBackoff) {
		return retryBackoff[len(retryBackoff)-1]
	}
	return retryBackoff[retryCount]
}

// RetryDue reports whether a failed payment may be re-attempted at now.
func RetryDue(p Payment, now time.Time) bool {
	if p.Status != StatusFailed || p.RetriesExhausted() {
		return false
	}
	since := p.CreatedAt
	if p.LastRetryAt != nil {
		since = *p.LastRetryAt
	}
	return now.Sub(since) >= BackoffFor(p.RetryCount)
}

// InitialIdempotencyKey is the key for the Runner's first charge of a row.
func InitialIdempotencyKey(paymentID uuid.UUID) string {
	return paymentID.String()
}

// RetryIdempotencyKey is stable for one attempt number so re-invoking the
// retry job within an attempt cannot double-charge.
func RetryIdempotencyKey(paymentID uuid.UUID, attempt int) string {
	return fmt.Sprintf("%s:%d", paymentID, attempt)
}
