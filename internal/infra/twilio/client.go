package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"tutor-billing/internal/domain/billing"

	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// SignatureHeader carries Twilio's HMAC-SHA1 request signature.
const SignatureHeader = "X-Twilio-Signature"

type SendParams struct {
	To                  string
	From                string
	MessagingServiceSID string
	Body                string
	StatusCallback      string
}

// Client sends SMS and validates Twilio webhook signatures.
type Client struct {
	accountSID string
	authToken  string
	rest       *twilio.RestClient
	validator  twclient.RequestValidator
	log        *zap.Logger
}

func New(accountSID, authToken string, log *zap.Logger) *Client {
	c := &Client{
		accountSID: accountSID,
		authToken:  authToken,
		validator:  twclient.NewRequestValidator(authToken),
		log:        log,
	}
	if accountSID != "" && authToken != "" {
		c.rest = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return c
}

// Send creates the message and returns its SID. A messaging service SID
// takes precedence over the from number.
func (c *Client) Send(ctx context.Context, p SendParams) (string, error) {
	if c.rest == nil {
		return "", billing.Config("twilio.Send", "TWILIO_ACCOUNT_SID / TWILIO_AUTH_TOKEN not configured")
	}
	if p.To == "" || p.Body == "" {
		return "", billing.Validation("twilio.Send", "to and body are required")
	}

	params := &api.CreateMessageParams{}
	params.SetTo(p.To)
	params.SetBody(p.Body)
	if p.MessagingServiceSID != "" {
		params.SetMessagingServiceSid(p.MessagingServiceSID)
	} else if p.From != "" {
		params.SetFrom(p.From)
	} else {
		return "", billing.Validation("twilio.Send", "no sender identity")
	}
	if p.StatusCallback != "" {
		params.SetStatusCallback(p.StatusCallback)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := c.rest.Api.CreateMessage(params)
	if err != nil {
		return "", billing.Provider("twilio.Send", wrapTwilioError(err))
	}
	if resp.Sid == nil {
		return "", billing.Provider("twilio.Send", errors.New("response missing message sid"))
	}

	c.log.Info("sms queued with provider", zap.String("sid", *resp.Sid), zap.String("to", p.To))
	return *resp.Sid, nil
}

// Validate checks the signature of a form-encoded callback against the
// public URL Twilio was configured to call.
func (c *Client) Validate(fullURL string, form url.Values, signature string) error {
	if c.authToken == "" {
		return billing.Config("twilio.Validate", "TWILIO_AUTH_TOKEN not configured")
	}
	if signature == "" {
		return billing.Signature("twilio.Validate", errors.New("missing "+SignatureHeader))
	}
	if !c.validator.Validate(fullURL, flatten(form), signature) {
		return billing.Signature("twilio.Validate", errors.New("signature mismatch"))
	}
	return nil
}

// flatten keeps the first value per key; Twilio never repeats form keys.
func flatten(form url.Values) map[string]string {
	out := make(map[string]string, len(form))
	for k, v := range form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func wrapTwilioError(err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		return fmt.Errorf("%s (code %d)", restErr.Message, restErr.Code)
	}
	return err
}
