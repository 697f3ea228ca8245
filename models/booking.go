package models

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
	BookingArchived BookingStatus = "archived"
)

// BookingStatuses lists every state a booking can be in.
var BookingStatuses = []BookingStatus{BookingPending, BookingApproved, BookingRejected, BookingArchived}

// ParseBookingStatus accepts the four known states (case-insensitive) and nothing else.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range BookingStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown booking status %q", raw)
}

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// BookingReference is assigned once at creation and never rewritten.
	BookingReference string `gorm:"column:booking_reference;size:16;not null;uniqueIndex" json:"booking_reference"`

	TourID    *uint  `gorm:"column:tour_id;index" json:"tour_id"`
	TourTitle string `gorm:"column:tour_title;size:255;not null" json:"tour_title"`

	FullName string    `gorm:"column:full_name;size:100;not null" json:"full_name"`
	Email    string    `gorm:"column:email;size:255;not null;index" json:"email"`
	Phone    string    `gorm:"column:phone;size:20;not null" json:"phone"`
	Country  string    `gorm:"column:country;size:100;not null" json:"country"`
	TourDate time.Time `gorm:"column:tour_date;type:date;not null" json:"tour_date"`
	Adults   int       `gorm:"column:adults;not null;default:1" json:"adults"`
	Children int       `gorm:"column:children;not null;default:0" json:"children"`
	Message  string    `gorm:"column:message;type:text" json:"message"`

	Status BookingStatus `gorm:"column:status;size:20;not null;default:pending;index;check:chk_bookings_status,status IN ('pending','approved','rejected','archived')" json:"status"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Tour *Tour `gorm:"foreignKey:TourID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"tour,omitempty"`
}

// StatusInfo is the customer-facing wording for a booking status.
type StatusInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

var statusPresentation = map[BookingStatus]StatusInfo{
	BookingPending: {
		Label:       "Under review",
		Description: "We have received your request and our team is checking availability.",
	},
	BookingApproved: {
		Label:       "Confirmed",
		Description: "Your tour is confirmed. We will contact you with pickup details.",
	},
	BookingRejected: {
		Label:       "Dates unavailable",
		Description: "Unfortunately the requested date is not available. Please contact us to find another date.",
	},
	BookingArchived: {
		Label:       "Journey completed",
		Description: "This trip has been completed. Thank you for travelling with us!",
	},
}

// StatusPresentation maps a status to its label; unknown values fall back to the raw status.
func StatusPresentation(s BookingStatus) StatusInfo {
	if info, ok := statusPresentation[s]; ok {
		return info
	}
	return StatusInfo{Label: string(s)}
}
