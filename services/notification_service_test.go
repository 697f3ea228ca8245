package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tour-backend/models"
)

type failingChannel struct{ name string }

func (c failingChannel) Name() string { return c.name }

func (c failingChannel) Deliver(context.Context, Notification) error {
	return errors.New(c.name + " is down")
}

type countingChannel struct {
	delivered atomic.Int32
	block     chan struct{}
}

func (c *countingChannel) Name() string { return "counting" }

func (c *countingChannel) Deliver(ctx context.Context, _ Notification) error {
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.delivered.Add(1)
	return nil
}

type panickingChannel struct{}

func (panickingChannel) Name() string { return "panicky" }

func (panickingChannel) Deliver(context.Context, Notification) error { panic("boom") }

type recordingTextSender struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingTextSender) SendText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:               1,
		BookingReference: "AB-CDEFGH",
		TourTitle:        "Safari Blue",
		FullName:         "Amina <b>Juma</b>",
		Email:            "a@example.com",
		Phone:            "+255712345678",
		Country:          "Tanzania",
		TourDate:         time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC),
		Adults:           2,
		Status:           models.BookingApproved,
	}
}

func TestDispatcher_DeliversToEveryChannelAndDrainsOnClose(t *testing.T) {
	counting := &countingChannel{}
	var errs atomic.Int32
	d := NewNotificationDispatcher(10, time.Second, counting, failingChannel{name: "telegram"}, panickingChannel{})
	d.OnError = func(*NotificationError) { errs.Add(1) }
	d.Start()

	for i := 0; i < 3; i++ {
		d.Dispatch(Notification{Type: NotifyContact, Message: &models.Message{FullName: "Lars"}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Equal(t, int32(3), counting.delivered.Load())
	assert.Equal(t, int32(6), errs.Load())
}

func TestDispatcher_DispatchNeverBlocks(t *testing.T) {
	counting := &countingChannel{block: make(chan struct{})}
	d := NewNotificationDispatcher(1, time.Second, counting)
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Dispatch(Notification{Type: NotifyBooking, Booking: sampleBooking()})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispatch blocked on a full queue")
	}

	close(counting.block)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))
	assert.LessOrEqual(t, counting.delivered.Load(), int32(2))
}

func TestDispatcher_DispatchAfterCloseIsDropped(t *testing.T) {
	counting := &countingChannel{}
	d := NewNotificationDispatcher(10, time.Second, counting)
	d.Start()
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))

	d.Dispatch(Notification{Type: NotifyContact, Message: &models.Message{}})
	assert.Equal(t, int32(0), counting.delivered.Load())
}

func TestEmailChannel_BookingSendsCustomerAndAdminCopies(t *testing.T) {
	mailer := &fakeMailer{}
	ch := NewEmailChannel(mailer, "Zanzibar Tours", "https://tours.example.com/")

	require.NoError(t, ch.Deliver(context.Background(), Notification{Type: NotifyBooking, Booking: sampleBooking()}))

	sent := mailer.emails()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "AB-CDEFGH")
	assert.Contains(t, sent[0].HTML, "https://tours.example.com/track-booking?ref=AB-CDEFGH")
	assert.Contains(t, sent[0].HTML, "Amina &lt;b&gt;Juma&lt;/b&gt;")
	assert.NotContains(t, sent[0].HTML, "<b>Juma</b>")
	assert.Equal(t, "ops@example.com", sent[1].To)
}

func TestEmailChannel_StatusAndContact(t *testing.T) {
	mailer := &fakeMailer{}
	ch := NewEmailChannel(mailer, "Zanzibar Tours", "https://tours.example.com")

	require.NoError(t, ch.Deliver(context.Background(), Notification{Type: NotifyBookingStatus, Booking: sampleBooking()}))
	require.NoError(t, ch.Deliver(context.Background(), Notification{Type: NotifyContact, Message: &models.Message{
		FullName: "Lars Olsen", Email: "lars@example.org", Subject: "Groups", Body: "Do you take 12 people?",
	}}))

	sent := mailer.emails()
	require.Len(t, sent, 2)
	assert.Equal(t, "a@example.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Confirmed")
	assert.Equal(t, "ops@example.com", sent[1].To)
	assert.Contains(t, sent[1].HTML, "Do you take 12 people?")

	assert.Error(t, ch.Deliver(context.Background(), Notification{Type: NotifyBooking}))
	assert.Error(t, ch.Deliver(context.Background(), Notification{Type: "unknown"}))
}

func TestEmailChannel_ReportsSendFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("dial tcp: connection refused")}
	ch := NewEmailChannel(mailer, "Zanzibar Tours", "")

	err := ch.Deliver(context.Background(), Notification{Type: NotifyBooking, Booking: sampleBooking()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestTelegramChannel(t *testing.T) {
	sender := &recordingTextSender{}
	ch := NewTelegramChannel(sender)

	require.NoError(t, ch.Deliver(context.Background(), Notification{Type: NotifyBooking, Booking: sampleBooking()}))
	require.NoError(t, ch.Deliver(context.Background(), Notification{Type: NotifyContact, Message: &models.Message{FullName: "Lars", Email: "l@example.org", Body: "Hi"}}))
	require.NoError(t, ch.Deliver(context.Background(), Notification{Type: NotifyBookingStatus, Booking: sampleBooking()}))

	require.Len(t, sender.texts, 2)
	assert.True(t, strings.Contains(sender.texts[0], "AB-CDEFGH"))
	assert.Contains(t, sender.texts[1], "Lars")
}
