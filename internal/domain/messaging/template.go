package messaging

import (
	"fmt"
	"strings"
)

// PaymentFailedBody is the SMS sent once automatic collection has given up.
func PaymentFailedBody(studentName, amount string) string {
	name := strings.TrimSpace(studentName)
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	return fmt.Sprintf(
		"%s, we were unable to process the payment of %s for your upcoming tutoring session. "+
			"Please update your card details or reply to this message and we'll help sort it out.",
		greeting, amount,
	)
}
