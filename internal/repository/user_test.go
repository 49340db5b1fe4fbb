package repository

import (
	"context"
	"testing"
	"time"

	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const (
	testSalt = "$2a$10$N9qo8uLOickgx2ZMRZoMye"
	testHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

func userDoc(id primitive.ObjectID, name string) bson.D {
	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "email", Value: name + "@example.com"},
		{Key: "credentials", Value: bson.D{
			{Key: "salt", Value: testSalt},
			{Key: "hash", Value: testHash},
		}},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

// corruptUserDoc decodes cleanly but fails schema validation: the email and
// timestamps are missing while the credentials are intact.
func corruptUserDoc(id primitive.ObjectID, name string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: name},
		{Key: "credentials", Value: bson.D{
			{Key: "salt", Value: testSalt},
			{Key: "hash", Value: testHash},
		}},
	}
}

func TestUserRepositoryGetByName(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns a valid document", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, userDoc(id, "alice")))

		repo := NewUserRepository(mt.Coll)
		user, err := repo.GetByName(context.Background(), "alice")
		require.NoError(mt, err)
		require.NotNil(mt, user)
		assert.Equal(mt, id, user.ID)
		assert.Equal(mt, "alice@example.com", user.Email)
	})

	mt.Run("absent name yields nil without error", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		repo := NewUserRepository(mt.Coll)
		user, err := repo.GetByName(context.Background(), "nobody")
		require.NoError(mt, err)
		assert.Nil(mt, user)
	})

	mt.Run("schema-invalid document is treated as absent", func(mt *mtest.T) {
		// A corrupt account with working credentials must not reach the
		// login path; lookup reports it as missing instead.
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			corruptUserDoc(primitive.NewObjectID(), "ghost")))

		repo := NewUserRepository(mt.Coll)
		user, err := repo.GetByName(context.Background(), "ghost")
		require.NoError(mt, err)
		assert.Nil(mt, user)
	})
}

func TestUserRepositoryUpdateNameValidatesResult(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("valid rename is returned", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: userDoc(id, "renamed")},
		))

		repo := NewUserRepository(mt.Coll)
		user, err := repo.UpdateName(context.Background(), id.Hex(), "renamed")
		require.NoError(mt, err)
		assert.Equal(mt, "renamed", user.Name)
	})

	mt.Run("schema-invalid result is not exposed", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: corruptUserDoc(id, "renamed")},
		))

		repo := NewUserRepository(mt.Coll)
		user, err := repo.UpdateName(context.Background(), id.Hex(), "renamed")
		require.Error(mt, err)
		assert.Nil(mt, user)

		var appErr *models.AppError
		require.ErrorAs(mt, err, &appErr)
		assert.Equal(mt, models.CodeNotFound, appErr.Code)
	})
}
