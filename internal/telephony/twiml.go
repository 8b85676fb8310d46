package telephony

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"
)

// MaxAnswerSeconds bounds one recorded answer
const MaxAnswerSeconds = 120

const closingMessage = "Thank you for completing the interview. Your answers have been recorded. Goodbye."

// QuestionTwiML speaks the question and records the answer. Twilio posts
// the recording to nextURL and the transcription to transcribeURL.
func QuestionTwiML(question string, index int, nextURL, transcribeURL string) (string, error) {
	verbs := []twiml.Element{
		&twiml.VoiceSay{Message: fmt.Sprintf("Question %d. %s", index+1, question)},
		&twiml.VoiceRecord{
			Action:             nextURL,
			Method:             "POST",
			MaxLength:          fmt.Sprintf("%d", MaxAnswerSeconds),
			Timeout:            "5",
			PlayBeep:           "true",
			Transcribe:         "true",
			TranscribeCallback: transcribeURL,
		},
	}
	return twiml.Voice(verbs)
}

// ClosingTwiML ends the call
func ClosingTwiML() (string, error) {
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: closingMessage},
		&twiml.VoiceHangup{},
	})
}
