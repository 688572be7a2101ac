package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onboardme/backend/core/notification"
	inmemdb "github.com/onboardme/backend/storage/database/inmem"
)

var ctx = context.Background()

func TestService(t *testing.T) {
	svc := notification.NewService(inmemdb.NewNotificationRepository(inmemdb.Open()))

	_, err := svc.MarkRead(ctx, 404)
	assert.ErrorIs(t, err, notification.ErrNotFound)

	n1, err := svc.Notify(ctx, 1, notification.TitleCourseAssigned, "Hola, se te ha asignado un curso")
	require.NoError(t, err)
	assert.NotZero(t, n1.ID)
	assert.False(t, n1.Seen)
	assert.False(t, n1.SentDate.IsZero())

	_, err = svc.Notify(ctx, 2, notification.TitleCourseFinished, "Otro usuario")
	require.NoError(t, err)

	notifs, err := svc.QueryByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, n1.ID, notifs[0].ID)

	read, err := svc.MarkRead(ctx, n1.ID)
	require.NoError(t, err)
	assert.True(t, read.Seen)

	notifs, err = svc.QueryByUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, notifs[0].Seen)
}
