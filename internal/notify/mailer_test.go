package notify

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogMailerSend(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := log.New(buf, "", 0)

	m := NewLogMailer(logger)
	err := m.Send("student@campushub.edu", "Password recovery code", "123456")

	assert.NoError(t, err, "expected log mailer to always succeed")
	assert.Contains(t, buf.String(), "student@campushub.edu", "expected recipient to be logged")
	assert.Contains(t, buf.String(), "123456", "expected body to be logged")
}

func TestSMTPMailerUnreachableRelay(t *testing.T) {
	m := NewSMTPMailer("127.0.0.1:1", "noreply@campushub.edu")
	err := m.Send("student@campushub.edu", "subject", "body")
	assert.Error(t, err, "expected send to fail when the relay is unreachable")
}
