package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core/notification"
)

type notificationRow struct {
	ID       int       `db:"id"`
	UserID   int       `db:"user_id"`
	Title    string    `db:"titulo"`
	Message  string    `db:"mensaje"`
	SentDate time.Time `db:"fecha_envio"`
	Seen     bool      `db:"leida"`
}

func (r notificationRow) toNotification() notification.Notification {
	return notification.Notification{
		ID:       r.ID,
		UserID:   r.UserID,
		Title:    r.Title,
		Message:  r.Message,
		SentDate: r.SentDate,
		Seen:     r.Seen,
	}
}

const selectNotification = "SELECT id, user_id, titulo, mensaje, fecha_envio, leida FROM notificacion"

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	err := repo.db.QueryRowContext(ctx, `
INSERT INTO notificacion (user_id, titulo, mensaje, fecha_envio, leida)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		n.UserID, n.Title, n.Message, n.SentDate, n.Seen,
	).Scan(&n.ID)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id int) (notification.Notification, error) {
	var row notificationRow
	err := repo.db.GetContext(ctx, &row, selectNotification+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return notification.Notification{}, notification.ErrNotFound
	}
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.toNotification(), nil
}

func (repo *notificationRepository) QueryNotificationsByUserID(ctx context.Context, userID int) ([]notification.Notification, error) {
	var rows []notificationRow
	err := repo.db.SelectContext(ctx, &rows, selectNotification+" WHERE user_id = $1 ORDER BY fecha_envio DESC", userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	notifs := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		notifs = append(notifs, r.toNotification())
	}
	return notifs, nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE notificacion SET titulo = $2, mensaje = $3, leida = $4 WHERE id = $1",
		n.ID, n.Title, n.Message, n.Seen,
	)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return n, nil
}
