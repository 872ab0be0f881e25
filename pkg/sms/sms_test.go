package sms

import "testing"

func TestSendRejectsNonE164(t *testing.T) {
	if err := Send("AC1", "token", "+15550000000", "5551234", "hi"); err == nil {
		t.Fatal("expected invalid phone number error")
	}
}
