package telephony

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeCaller struct {
	params *twilioapi.CreateCallParams
	err    error
}

func (f *fakeCaller) CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "CA123"
	return &twilioapi.ApiV2010Call{Sid: &sid}, nil
}

func newTestDialer(t *testing.T, caller Caller) *Dialer {
	t.Helper()
	d, err := NewDialerWithCaller(caller, Config{
		From:          "+1 (650) 253-0000",
		PublicBaseURL: "https://interviews.example.com/",
	})
	if err != nil {
		t.Fatalf("NewDialerWithCaller failed: %v", err)
	}
	return d
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"(650) 253-0000", "+16502530000", false},
		{"+44 20 7031 3000", "+442070313000", false},
		{" 650.253.0000 ", "+16502530000", false},
		{"555-1234", "", true},
		{"not a number", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhone(tt.input, DefaultRegion)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPhone) {
				t.Errorf("NormalizePhone(%q): expected ErrInvalidPhone, got %q, %v", tt.input, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
}

func TestDialerCall(t *testing.T) {
	caller := &fakeCaller{}
	d := newTestDialer(t, caller)

	sid, err := d.Call(context.Background(), 42, "650-253-0000")
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if sid != "CA123" {
		t.Errorf("unexpected sid %q", sid)
	}

	p := caller.params
	if p == nil {
		t.Fatal("expected call params")
	}
	if *p.To != "+16502530000" || *p.From != "+16502530000" {
		t.Errorf("unexpected numbers to=%s from=%s", *p.To, *p.From)
	}

	voice, err := url.Parse(*p.Url)
	if err != nil {
		t.Fatalf("invalid voice url: %v", err)
	}
	if voice.Host != "interviews.example.com" || voice.Path != VoicePath {
		t.Errorf("unexpected voice url %s", *p.Url)
	}
	if voice.Query().Get("interviewId") != "42" || voice.Query().Get("questionIndex") != "0" {
		t.Errorf("unexpected voice query %s", voice.RawQuery)
	}

	if !strings.HasSuffix(*p.StatusCallback, StatusPath+"?interviewId=42") {
		t.Errorf("unexpected status callback %s", *p.StatusCallback)
	}
}

func TestDialerCallErrors(t *testing.T) {
	caller := &fakeCaller{err: errors.New("twilio down")}
	d := newTestDialer(t, caller)

	if _, err := d.Call(context.Background(), 1, "12"); !errors.Is(err, ErrInvalidPhone) {
		t.Errorf("expected ErrInvalidPhone, got %v", err)
	}
	if caller.params != nil {
		t.Error("invalid number must not place a call")
	}

	if _, err := d.Call(context.Background(), 1, "650-253-0000"); err == nil {
		t.Error("expected error from caller")
	}
}

func TestNewDialerRequiresConfig(t *testing.T) {
	if _, err := NewDialer(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewDialerWithCaller(&fakeCaller{}, Config{From: "+16502530000"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured without base url, got %v", err)
	}
}

func TestQuestionTwiML(t *testing.T) {
	d := newTestDialer(t, &fakeCaller{})

	doc, err := QuestionTwiML("Explain channels & goroutines", 2, d.VoiceURL(7, 3), d.TranscribeURL(7, 2))
	if err != nil {
		t.Fatalf("QuestionTwiML failed: %v", err)
	}

	for _, want := range []string{
		"<Response>",
		"<Say>Question 3. Explain channels &amp; goroutines</Say>",
		"<Record",
		`transcribe="true"`,
		`maxLength="120"`,
		"questionIndex=3",
		"questionIndex=2",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("TwiML missing %q:\n%s", want, doc)
		}
	}
}

func TestClosingTwiML(t *testing.T) {
	doc, err := ClosingTwiML()
	if err != nil {
		t.Fatalf("ClosingTwiML failed: %v", err)
	}
	if !strings.Contains(doc, "<Say>"+closingMessage+"</Say>") || !strings.Contains(doc, "<Hangup") {
		t.Errorf("unexpected closing TwiML:\n%s", doc)
	}
}

func TestAbandonedStatus(t *testing.T) {
	for _, s := range []string{"no-answer", "busy", "failed", "canceled", "BUSY"} {
		if !AbandonedStatus(s) {
			t.Errorf("expected %q to be abandoned", s)
		}
	}
	for _, s := range []string{"completed", "in-progress", "ringing", ""} {
		if AbandonedStatus(s) {
			t.Errorf("expected %q not to be abandoned", s)
		}
	}
}
