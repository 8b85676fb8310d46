// Package telephony runs interviews over the phone through Twilio: it
// places outbound calls, renders TwiML for each question and normalises
// phone numbers.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// DefaultRegion is used for numbers without a country code
const DefaultRegion = "US"

// Webhook paths served by the API
const (
	VoicePath      = "/api/v1/telephony/voice"
	TranscribePath = "/api/v1/telephony/transcribe"
	StatusPath     = "/api/v1/telephony/status"
)

var (
	ErrNotConfigured = errors.New("telephony not configured")
	ErrInvalidPhone  = errors.New("invalid phone number")
)

// Config holds the Twilio account settings
type Config struct {
	AccountSID    string
	AuthToken     string
	From          string
	PublicBaseURL string
	Region        string
}

// Caller places outbound calls. It is satisfied by the twilio-go API
// service.
type Caller interface {
	CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error)
}

// Dialer places interview calls
type Dialer struct {
	caller  Caller
	from    string
	baseURL string
	region  string
}

// NewDialer creates a dialer backed by the Twilio REST API
func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, ErrNotConfigured
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return NewDialerWithCaller(client.Api, cfg)
}

// NewDialerWithCaller creates a dialer over an existing caller
func NewDialerWithCaller(caller Caller, cfg Config) (*Dialer, error) {
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("%w: public base url is required for webhooks", ErrNotConfigured)
	}
	region := cfg.Region
	if region == "" {
		region = DefaultRegion
	}
	from, err := NormalizePhone(cfg.From, region)
	if err != nil {
		return nil, fmt.Errorf("invalid caller number: %w", err)
	}

	return &Dialer{
		caller:  caller,
		from:    from,
		baseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		region:  region,
	}, nil
}

// Call dials the candidate and points Twilio at the first question of the
// interview. It returns the call SID.
func (d *Dialer) Call(ctx context.Context, interviewID int64, phone string) (string, error) {
	to, err := NormalizePhone(phone, d.region)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetUrl(d.VoiceURL(interviewID, 0))
	params.SetMethod("POST")
	params.SetStatusCallback(d.StatusURL(interviewID))
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent([]string{"completed"})

	call, err := d.caller.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("failed to create call: %w", err)
	}

	var sid string
	if call != nil && call.Sid != nil {
		sid = *call.Sid
	}
	slog.Info("interview call placed", "interview_id", interviewID, "call_sid", sid)

	return sid, nil
}

// VoiceURL is the webhook that speaks question index
func (d *Dialer) VoiceURL(interviewID int64, index int) string {
	return d.webhook(VoicePath, interviewID, index)
}

// TranscribeURL receives the transcription of the answer to index
func (d *Dialer) TranscribeURL(interviewID int64, index int) string {
	return d.webhook(TranscribePath, interviewID, index)
}

// StatusURL receives call status changes
func (d *Dialer) StatusURL(interviewID int64) string {
	return d.webhook(StatusPath, interviewID, -1)
}

func (d *Dialer) webhook(path string, interviewID int64, index int) string {
	q := url.Values{}
	q.Set("interviewId", strconv.FormatInt(interviewID, 10))
	if index >= 0 {
		q.Set("questionIndex", strconv.Itoa(index))
	}
	return d.baseURL + path + "?" + q.Encode()
}

// NormalizePhone returns the E.164 form of phone, parsed in region when it
// has no country code
func NormalizePhone(phone, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(phone), region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPhone, phone)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// AbandonedStatus reports whether a final call status means the candidate
// never took or finished the call
func AbandonedStatus(status string) bool {
	switch strings.ToLower(status) {
	case "no-answer", "busy", "failed", "canceled":
		return true
	}
	return false
}
