package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*gomail.Message
	done chan struct{}
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.mu.Lock()
	f.sent = append(f.sent, m...)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func TestMailServiceSendsToOptedInRecipients(t *testing.T) {
	fake := &fakeSender{done: make(chan struct{}, 1)}
	mailer := &MailService{dialer: fake, from: "news@example.com"}

	mailer.Dispatch(context.Background(), NotificationEvent{
		RecipientEmail: "owner@example.com",
		EmailOptIn:     true,
		Subject:        "Your article received an upvote",
		Message:        "Your article received an upvote from <bob>",
	})

	select {
	case <-fake.done:
	case <-time.After(2 * time.Second):
		t.Fatal("mail was not sent")
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	m := fake.sent[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "owner@example.com" {
		t.Errorf("To = %v", got)
	}
	var body strings.Builder
	if _, err := m.WriteTo(&body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.String(), "&lt;bob&gt;") {
		t.Error("message body is not escaped")
	}
}

func TestMailServiceSkipsOptedOut(t *testing.T) {
	fake := &fakeSender{done: make(chan struct{}, 1)}
	mailer := &MailService{dialer: fake, from: "news@example.com"}

	mailer.Dispatch(context.Background(), NotificationEvent{RecipientEmail: "owner@example.com", EmailOptIn: false})
	mailer.Dispatch(context.Background(), NotificationEvent{EmailOptIn: true})

	select {
	case <-fake.done:
		t.Fatal("mail sent despite opt-out")
	case <-time.After(100 * time.Millisecond):
	}
}
