package telephony

import (
	"net/http"
	"strings"

	"github.com/twilio/twilio-go/client"
)

// SignatureHeader carries the Twilio request signature
const SignatureHeader = "X-Twilio-Signature"

// WebhookValidator checks that webhook requests were signed by Twilio
type WebhookValidator struct {
	validator client.RequestValidator
	baseURL   string
}

// NewWebhookValidator validates against authToken. publicBaseURL is the
// externally visible origin Twilio used to reach the service.
func NewWebhookValidator(authToken, publicBaseURL string) *WebhookValidator {
	return &WebhookValidator{
		validator: client.NewRequestValidator(authToken),
		baseURL:   strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// ValidRequest reports whether r carries a valid signature for its URL and
// form parameters
func (v *WebhookValidator) ValidRequest(r *http.Request) bool {
	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}

	params := make(map[string]string, len(r.PostForm))
	for key, values := range r.PostForm {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	return v.validator.Validate(v.baseURL+r.URL.RequestURI(), params, signature)
}
