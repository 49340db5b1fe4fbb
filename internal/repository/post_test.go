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

func postDoc(id primitive.ObjectID, author string, likes []string) bson.D {
	now := primitive.NewDateTimeFromTime(time.Now().UTC())
	likeList := bson.A{}
	for _, l := range likes {
		likeList = append(likeList, l)
	}
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "author", Value: author},
		{Key: "title", Value: "a title"},
		{Key: "body", Value: bson.D{
			{Key: "content", Value: "some content"},
			{Key: "images", Value: bson.A{}},
		}},
		{Key: "interactions", Value: bson.D{
			{Key: "likes", Value: likeList},
			{Key: "forwards", Value: bson.A{}},
			{Key: "comments", Value: bson.A{}},
		}},
		{Key: "createdAt", Value: now},
		{Key: "updatedAt", Value: now},
	}
}

func assertHiddenPost(mt *mtest.T, post *models.StoredPost, err error) {
	mt.Helper()
	require.Error(mt, err)
	assert.Nil(mt, post)

	var appErr *models.AppError
	require.ErrorAs(mt, err, &appErr)
	assert.Equal(mt, models.CodeNotFound, appErr.Code)
}

func TestPostRepositoryToggleInteractionValidatesResult(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("valid result is returned", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		author := primitive.NewObjectID().Hex()
		liker := primitive.NewObjectID().Hex()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: postDoc(id, author, []string{liker})},
		))

		repo := NewPostRepository(mt.Coll)
		post, err := repo.ToggleInteraction(context.Background(), id.Hex(), InteractionLike, liker)
		require.NoError(mt, err)
		require.NotNil(mt, post)
		assert.Equal(mt, []string{liker}, post.Interactions.Likes)
	})

	mt.Run("schema-invalid result is not exposed", func(mt *mtest.T) {
		// The author field carries a name instead of an id reference, the
		// superseded embedded shape.
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: postDoc(id, "alice", nil)},
		))

		repo := NewPostRepository(mt.Coll)
		post, err := repo.ToggleInteraction(context.Background(), id.Hex(), InteractionLike, primitive.NewObjectID().Hex())
		assertHiddenPost(mt, post, err)
	})
}

func TestPostRepositoryUpdateValidatesResult(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("schema-invalid result is not exposed", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: postDoc(id, "not-an-id", nil)},
		))

		repo := NewPostRepository(mt.Coll)
		title := "new title"
		post, err := repo.Update(context.Background(), id.Hex(), PostUpdate{Title: &title})
		assertHiddenPost(mt, post, err)
	})
}

func TestPostRepositoryAddCommentValidatesResult(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("schema-invalid result is not exposed", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: postDoc(id, "not-an-id", nil)},
		))

		repo := NewPostRepository(mt.Coll)
		post, err := repo.AddComment(context.Background(), id.Hex(), models.Comment{
			Author:    primitive.NewObjectID().Hex(),
			Body:      models.CommentBody{Content: "hi"},
			CreatedAt: time.Now().UTC(),
		})
		assertHiddenPost(mt, post, err)
	})
}
