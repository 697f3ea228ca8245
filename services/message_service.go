package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"tour-backend/models"
	"tour-backend/utils"
)

// MessageService stores contact-form submissions.
type MessageService struct {
	DB       *gorm.DB
	Notifier Notifier
}

func NewMessageService(db *gorm.DB, notifier Notifier) *MessageService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MessageService{DB: db, Notifier: notifier}
}

type MessageInput struct {
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"max=20"`
	Subject  string `json:"subject" validate:"max=200"`
	Message  string `json:"message" validate:"required,min=5,max=2000"`
}

// CreateMessage stores the message unread and raises a contact notification.
func (s *MessageService) CreateMessage(ctx context.Context, in MessageInput) (*models.Message, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	fields, err := utils.FieldErrors(in)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	m := models.Message{
		FullName: in.FullName,
		Email:    in.Email,
		Phone:    in.Phone,
		Subject:  in.Subject,
		Body:     in.Message,
	}
	if err := s.DB.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	log.Printf("✉️  contact message %d from %s", m.ID, utils.MaskEmail(m.Email))

	snapshot := m
	s.Notifier.Dispatch(Notification{Type: NotifyContact, Message: &snapshot})
	return &m, nil
}

// ListMessages returns newest first; unreadOnly hides read messages.
func (s *MessageService) ListMessages(ctx context.Context, caller *models.Caller, unreadOnly bool) ([]models.Message, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	q := s.DB.WithContext(ctx).Model(&models.Message{})
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	list := []models.Message{}
	if err := q.Order("created_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve messages: %w", err)
	}
	return list, nil
}

func (s *MessageService) MarkRead(ctx context.Context, caller *models.Caller, id uint, read bool) (*models.Message, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	res := db.Model(&models.Message{}).Where("id = ?", id).Update("is_read", read)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update message: %w", res.Error)
	}

	var m models.Message
	if err := db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to retrieve message: %w", err)
	}
	return &m, nil
}

func (s *MessageService) DeleteMessage(ctx context.Context, caller *models.Caller, id uint) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
