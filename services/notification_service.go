package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tour-backend/models"
	"tour-backend/utils"
)

type NotificationType string

const (
	NotifyBooking       NotificationType = "booking"
	NotifyBookingStatus NotificationType = "booking_status"
	NotifyContact       NotificationType = "contact"
)

// Notification is a side-channel event raised after a write has committed.
// Exactly one of Booking or Message is set, depending on Type.
type Notification struct {
	Type    NotificationType
	Booking *models.Booking
	Message *models.Message
}

// Notifier accepts notifications without blocking the caller.
type Notifier interface {
	Dispatch(n Notification)
}

// NopNotifier drops everything.
type NopNotifier struct{}

func (NopNotifier) Dispatch(Notification) {}

// NotificationChannel delivers a notification over one transport.
type NotificationChannel interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// NotificationDispatcher queues notifications and delivers them on a background worker.
type NotificationDispatcher struct {
	queue    chan Notification
	channels []NotificationChannel
	timeout  time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}

	// OnError observes every failed delivery after it has been logged.
	OnError func(*NotificationError)
}

func NewNotificationDispatcher(queueSize int, timeout time.Duration, channels ...NotificationChannel) *NotificationDispatcher {
	if queueSize <= 0 {
		queueSize = 100
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &NotificationDispatcher{
		queue:    make(chan Notification, queueSize),
		channels: channels,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Start launches the worker. Calling it twice is a no-op.
func (d *NotificationDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	go d.run()
}

// Dispatch enqueues n. A full or closed queue drops the notification with a log line.
func (d *NotificationDispatcher) Dispatch(n Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		log.Printf("notification %s dropped: dispatcher closed", n.Type)
		return
	}
	select {
	case d.queue <- n:
	default:
		log.Printf("notification %s dropped: queue full", n.Type)
	}
}

// Close stops accepting notifications and waits for the queue to drain or ctx to end.
func (d *NotificationDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *NotificationDispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *NotificationDispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var g errgroup.Group
	for _, ch := range d.channels {
		ch := ch
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil {
					d.report(&NotificationError{Channel: ch.Name(), Type: string(n.Type), Err: err})
				}
			}()
			return ch.Deliver(ctx, n)
		})
	}
	_ = g.Wait()
}

func (d *NotificationDispatcher) report(nerr *NotificationError) {
	log.Printf("⚠️  %v", nerr)
	if d.OnError != nil {
		d.OnError(nerr)
	}
}

// ---------------------------
// Email channel
// ---------------------------

// EmailSender is the subset of utils.Mailer the services depend on.
type EmailSender interface {
	Send(ctx context.Context, e utils.Email) error
	AdminInbox() string
}

type EmailChannel struct {
	mailer      EmailSender
	siteName    string
	frontendURL string
}

func NewEmailChannel(mailer EmailSender, siteName, frontendURL string) *EmailChannel {
	return &EmailChannel{mailer: mailer, siteName: siteName, frontendURL: strings.TrimRight(frontendURL, "/")}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, n Notification) error {
	var emails []utils.Email
	switch n.Type {
	case NotifyBooking:
		if n.Booking == nil {
			return errors.New("booking notification without booking")
		}
		emails = append(emails, c.bookingReceived(n.Booking), c.bookingAdminCopy(n.Booking))
	case NotifyBookingStatus:
		if n.Booking == nil {
			return errors.New("status notification without booking")
		}
		emails = append(emails, c.bookingStatusChanged(n.Booking))
	case NotifyContact:
		if n.Message == nil {
			return errors.New("contact notification without message")
		}
		emails = append(emails, c.contactAdminCopy(n.Message))
	default:
		return fmt.Errorf("unknown notification type %q", n.Type)
	}

	var errs []error
	for _, e := range emails {
		if e.To == "" {
			continue
		}
		if err := c.mailer.Send(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.To, err))
		}
	}
	return errors.Join(errs...)
}

func (c *EmailChannel) trackingLink(b *models.Booking) string {
	return fmt.Sprintf("%s/track-booking?ref=%s", c.frontendURL, b.BookingReference)
}

func bookingDetailsHTML(b *models.Booking) string {
	esc := html.EscapeString
	return fmt.Sprintf(
		`<p><span class="label">Booking Reference:</span> %s</p>
<p><span class="label">Tour:</span> %s</p>
<p><span class="label">Date:</span> %s</p>
<p><span class="label">Guests:</span> %d adult(s), %d child(ren)</p>`,
		esc(b.BookingReference), esc(b.TourTitle), b.TourDate.Format("2006-01-02"), b.Adults, b.Children,
	)
}

func (c *EmailChannel) bookingReceived(b *models.Booking) utils.Email {
	body := fmt.Sprintf(`<p>Dear %s,</p>
<p>Thank you for your booking request. Our team will review it and get back to you shortly.</p>
%s
<p>You can follow the status of your booking here: <a href="%s">%s</a></p>`,
		html.EscapeString(b.FullName), bookingDetailsHTML(b), c.trackingLink(b), c.trackingLink(b))
	return utils.Email{
		To:      b.Email,
		Subject: fmt.Sprintf("Booking request received (%s)", b.BookingReference),
		HTML:    utils.EmailLayout("Booking request received", body, c.siteName),
	}
}

func (c *EmailChannel) bookingAdminCopy(b *models.Booking) utils.Email {
	esc := html.EscapeString
	body := fmt.Sprintf(`%s
<p><span class="label">Name:</span> %s</p>
<p><span class="label">Email:</span> %s</p>
<p><span class="label">Phone:</span> %s</p>
<p><span class="label">Country:</span> %s</p>
<p><span class="label">Message:</span> %s</p>`,
		bookingDetailsHTML(b), esc(b.FullName), esc(b.Email), esc(b.Phone), esc(b.Country), esc(b.Message))
	return utils.Email{
		To:      c.mailer.AdminInbox(),
		Subject: fmt.Sprintf("New booking %s: %s", b.BookingReference, b.TourTitle),
		HTML:    utils.EmailLayout("New booking request", body, c.siteName),
	}
}

func (c *EmailChannel) bookingStatusChanged(b *models.Booking) utils.Email {
	info := models.StatusPresentation(b.Status)
	body := fmt.Sprintf(`<p>Dear %s,</p>
<p>The status of your booking is now <strong>%s</strong>.</p>
<p>%s</p>
%s`,
		html.EscapeString(b.FullName), html.EscapeString(info.Label), html.EscapeString(info.Description), bookingDetailsHTML(b))
	return utils.Email{
		To:      b.Email,
		Subject: fmt.Sprintf("Booking %s: %s", b.BookingReference, info.Label),
		HTML:    utils.EmailLayout("Booking update", body, c.siteName),
	}
}

func (c *EmailChannel) contactAdminCopy(m *models.Message) utils.Email {
	esc := html.EscapeString
	body := fmt.Sprintf(`<p><span class="label">Name:</span> %s</p>
<p><span class="label">Email:</span> %s</p>
<p><span class="label">Phone:</span> %s</p>
<p><span class="label">Subject:</span> %s</p>
<p>%s</p>`,
		esc(m.FullName), esc(m.Email), esc(m.Phone), esc(m.Subject), esc(m.Body))
	return utils.Email{
		To:      c.mailer.AdminInbox(),
		Subject: fmt.Sprintf("New contact message from %s", m.FullName),
		HTML:    utils.EmailLayout("New contact message", body, c.siteName),
	}
}

// ---------------------------
// Telegram channel
// ---------------------------

type TextSender interface {
	SendText(text string) error
}

// TelegramChannel posts admin alerts for new bookings and contact messages.
type TelegramChannel struct {
	sender TextSender
}

func NewTelegramChannel(sender TextSender) *TelegramChannel {
	return &TelegramChannel{sender: sender}
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Deliver(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var text string
	switch n.Type {
	case NotifyBooking:
		b := n.Booking
		text = fmt.Sprintf("🧭 New booking %s\n%s\n%s · %d adult(s), %d child(ren)\n%s <%s> %s",
			b.BookingReference, b.TourTitle, b.TourDate.Format("2006-01-02"), b.Adults, b.Children,
			b.FullName, b.Email, b.Phone)
	case NotifyContact:
		m := n.Message
		text = fmt.Sprintf("✉️ New message from %s <%s>\n%s\n%s", m.FullName, m.Email, m.Subject, m.Body)
	default:
		return nil
	}
	return c.sender.SendText(text)
}
