package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("notification not found")

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		GetNotificationByID(ctx context.Context, id int) (Notification, error)
		QueryNotificationsByUserID(ctx context.Context, userID int) ([]Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Notify creates an unseen notification for the given user.
// Fire-and-forget from the caller's point of view: no retry, no dedup.
func (svc *Service) Notify(ctx context.Context, userID int, title, message string) (Notification, error) {
	return svc.repo.CreateNotification(ctx, Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		SentDate: time.Now().UTC(),
	})
}

func (svc *Service) QueryByUser(ctx context.Context, userID int) ([]Notification, error) {
	return svc.repo.QueryNotificationsByUserID(ctx, userID)
}

func (svc *Service) MarkRead(ctx context.Context, id int) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	n.Seen = true
	return svc.repo.UpdateNotification(ctx, n)
}
