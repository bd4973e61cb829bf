package service

import (
	"github.com/google/uuid"

	"github.com/Sakshi-Mishra77/Smart-city-new/internal/model"
)

type notificationStore interface {
	GetByUserID(userID uuid.UUID) ([]model.Notification, error)
	GetUnreadCount(userID uuid.UUID) (int, error)
	MarkAsRead(notificationID, userID uuid.UUID) error
	MarkAllAsRead(userID uuid.UUID) error
}

type NotificationService struct {
	store notificationStore
}

func NewNotificationService(store notificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(userID uuid.UUID) (*model.NotificationList, error) {
	notifications, err := s.store.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	unread, err := s.store.GetUnreadCount(userID)
	if err != nil {
		return nil, err
	}
	return &model.NotificationList{
		Notifications: notifications,
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) MarkRead(notificationID, userID uuid.UUID) error {
	return s.store.MarkAsRead(notificationID, userID)
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) error {
	return s.store.MarkAllAsRead(userID)
}
