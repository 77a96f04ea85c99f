package identity

import (
	"context"
	"testing"
	"time"

	"github.com/hondana/hondana/pkg/config"
	"github.com/hondana/hondana/pkg/database"
	"github.com/hondana/hondana/pkg/errcodes"
	"github.com/hondana/hondana/pkg/migrations"
	"github.com/hondana/hondana/pkg/models"
	"github.com/hondana/hondana/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.New(config.NewForTest())
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func identityData(id string, emails ...string) IdentityData {
	data := IdentityData{ID: id}
	for _, e := range emails {
		data.EmailAddresses = append(data.EmailAddresses, EmailAddress{EmailAddress: e})
	}
	return data
}

func insertBookWithStatus(ctx context.Context, t *testing.T, db *bun.DB, ownerUserID, title string) {
	t.Helper()

	now := time.Now()
	book := &models.Book{
		ID:          models.NewID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		OwnerUserID: ownerUserID,
		Title:       title,
		Author:      "Frank Herbert",
	}
	_, err := db.NewInsert().Model(book).Exec(ctx)
	require.NoError(t, err)

	status := &models.ReadingStatus{
		ID:          models.NewID(),
		CreatedAt:   now,
		UpdatedAt:   now,
		BookID:      book.ID,
		OwnerUserID: ownerUserID,
		Status:      models.StatusReading,
		StartedAt:   &now,
	}
	_, err = db.NewInsert().Model(status).Exec(ctx)
	require.NoError(t, err)
}

func TestIdentityDataPrimaryEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", identityData("user_1").PrimaryEmail())
	assert.Equal(t, "b@example.com", identityData("user_1", "", "b@example.com", "c@example.com").PrimaryEmail())
}

func TestServiceOnCreated(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(users.NewService(db))
	ctx := context.Background()

	t.Run("creates the user with a username from the email", func(t *testing.T) {
		user, err := svc.OnCreated(ctx, identityData("user_1", "frank@example.com"))
		require.NoError(t, err)
		assert.Equal(t, "user_1", user.ExternalID)
		assert.Equal(t, "frank@example.com", user.Email)
		assert.Equal(t, "frank", user.Username)
	})

	t.Run("keeps the provider's username", func(t *testing.T) {
		username := "muaddib"
		data := identityData("user_2", "paul@example.com")
		data.Username = &username

		user, err := svc.OnCreated(ctx, data)
		require.NoError(t, err)
		assert.Equal(t, "muaddib", user.Username)
	})

	t.Run("replay is a duplicate", func(t *testing.T) {
		_, err := svc.OnCreated(ctx, identityData("user_1", "frank@example.com"))
		assert.True(t, errcodes.HasCode(err, errcodes.CodeDuplicateUser))

		count, err := db.NewSelect().Model((*models.User)(nil)).Where("external_id = ?", "user_1").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("no email is an error", func(t *testing.T) {
		_, err := svc.OnCreated(ctx, identityData("user_3", ""))
		assert.True(t, errcodes.HasCode(err, errcodes.CodeMissingEmail))
	})

	t.Run("email taken by another account is a conflict", func(t *testing.T) {
		_, err := svc.OnCreated(ctx, identityData("user_4", "frank@example.com"))
		assert.True(t, errcodes.HasCode(err, errcodes.CodeConflict))
	})
}

func TestServiceOnUpdated(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	userService := users.NewService(db)
	svc := NewService(userService)
	ctx := context.Background()

	_, err := svc.OnCreated(ctx, identityData("user_1", "frank@example.com"))
	require.NoError(t, err)

	require.NoError(t, svc.OnUpdated(ctx, identityData("user_1", "fh@example.com")))

	externalID := "user_1"
	user, err := userService.Retrieve(ctx, users.RetrieveUserOptions{ExternalID: &externalID})
	require.NoError(t, err)
	assert.Equal(t, "fh@example.com", user.Email)

	t.Run("unknown user is a no-op", func(t *testing.T) {
		require.NoError(t, svc.OnUpdated(ctx, identityData("user_missing", "x@example.com")))

		count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("no email is an error", func(t *testing.T) {
		err := svc.OnUpdated(ctx, identityData("user_1"))
		assert.True(t, errcodes.HasCode(err, errcodes.CodeMissingEmail))
	})
}

func TestServiceOnDeleted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(users.NewService(db))
	ctx := context.Background()

	user, err := svc.OnCreated(ctx, identityData("user_1", "frank@example.com"))
	require.NoError(t, err)
	other, err := svc.OnCreated(ctx, identityData("user_2", "paul@example.com"))
	require.NoError(t, err)

	for _, title := range []string{"Dune", "Dune Messiah", "Children of Dune"} {
		insertBookWithStatus(ctx, t, db, user.ID, title)
	}
	insertBookWithStatus(ctx, t, db, other.ID, "Foundation")

	require.NoError(t, svc.OnDeleted(ctx, "user_1"))

	for _, model := range []interface{}{(*models.ReadingStatus)(nil), (*models.Book)(nil)} {
		count, err := db.NewSelect().Model(model).Where("owner_user_id = ?", user.ID).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		count, err = db.NewSelect().Model(model).Where("owner_user_id = ?", other.ID).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	}
	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	t.Run("unknown user", func(t *testing.T) {
		err := svc.OnDeleted(ctx, "user_1")
		var codeErr *errcodes.Error
		require.ErrorAs(t, err, &codeErr)
		assert.Equal(t, errcodes.CodeUserNotFound, codeErr.Code)
	})
}
