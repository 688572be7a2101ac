package inmemdb

import (
	"context"
	"sort"

	"github.com/onboardme/backend/core/notification"
)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n.ID = repo.db.nextID()
	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(_ context.Context, id int) (notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) QueryNotificationsByUserID(_ context.Context, userID int) ([]notification.Notification, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var notifs []notification.Notification
	for _, n := range repo.db.notifications {
		if n.UserID == userID {
			notifs = append(notifs, *n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].SentDate.After(notifs[j].SentDate) })
	return notifs, nil
}

func (repo *notificationRepository) UpdateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.notifications[n.ID]; !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	repo.db.notifications[n.ID] = &n
	return n, nil
}
