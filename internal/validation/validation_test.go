package validation

import (
	"strings"
	"testing"
	"time"

	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"abc", "alice", "user_name", "user-name", "User123", strings.Repeat("a", 30)}
	for _, name := range valid {
		assert.NoError(t, ValidateUsername(name), "name %q", name)
	}

	invalid := []string{"", "ab", strings.Repeat("a", 31), "has space", "uni©ode", "semi;colon", "at@sign"}
	for _, name := range invalid {
		assert.Error(t, ValidateUsername(name), "name %q", name)
	}
}

func TestValidateEmailSuffix(t *testing.T) {
	t.Parallel()

	t.Run("no allow-list accepts any address", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateEmailSuffix("a@anything.net", nil))
	})

	t.Run("malformed address is always rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, ValidateEmailSuffix("", nil))
		assert.Error(t, ValidateEmailSuffix("not-an-email", nil))
	})

	t.Run("allow-list", func(t *testing.T) {
		t.Parallel()
		suffixes := []string{"@example.com", "@corp.example.org"}
		assert.NoError(t, ValidateEmailSuffix("a@example.com", suffixes))
		assert.NoError(t, ValidateEmailSuffix("b@corp.example.org", suffixes))
		assert.Error(t, ValidateEmailSuffix("c@gmail.com", suffixes))
		assert.Error(t, ValidateEmailSuffix("d@example.com.evil.net", suffixes))
	})
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePassword("pw12345"))
	assert.NoError(t, ValidatePassword("123456"))
	assert.Error(t, ValidatePassword("12345"))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 129)))
}

func validStoredUser() *models.StoredUser {
	now := time.Now().UTC()
	return &models.StoredUser{
		ID:    primitive.NewObjectID(),
		Name:  "alice",
		Email: "alice@example.com",
		Credentials: models.Credentials{
			Salt: "$2a$10$N9qo8uLOickgx2ZMRZoMye",
			Hash: "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestValidateUser(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateUser(validStoredUser()))
	assert.Error(t, ValidateUser(nil))

	mutations := map[string]func(*models.StoredUser){
		"missing name":      func(u *models.StoredUser) { u.Name = "" },
		"missing email":     func(u *models.StoredUser) { u.Email = "" },
		"missing hash":      func(u *models.StoredUser) { u.Credentials.Hash = "" },
		"missing salt":      func(u *models.StoredUser) { u.Credentials.Salt = "" },
		"zero created time": func(u *models.StoredUser) { u.CreatedAt = time.Time{} },
		"zero updated time": func(u *models.StoredUser) { u.UpdatedAt = time.Time{} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			u := validStoredUser()
			mutate(u)
			assert.Error(t, ValidateUser(u))
			_, ok := ValidateUserSafe(u)
			assert.False(t, ok)
		})
	}
}

func validStoredPost() *models.StoredPost {
	now := time.Now().UTC()
	return &models.StoredPost{
		ID:     primitive.NewObjectID(),
		Author: primitive.NewObjectID().Hex(),
		Title:  "a title",
		Body:   models.PostBody{Content: "content", Images: []string{}},
		Interactions: models.Interactions{
			Likes:    []string{primitive.NewObjectID().Hex()},
			Forwards: []string{},
			Comments: []models.Comment{{
				Author:    primitive.NewObjectID().Hex(),
				Body:      models.CommentBody{Content: "hi"},
				CreatedAt: now,
			}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestValidatePost(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePost(validStoredPost()))
	assert.Error(t, ValidatePost(nil))

	t.Run("author must be an id reference", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		p.Author = "alice"
		assert.Error(t, ValidatePost(p))
	})

	t.Run("likes must be id references", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		p.Interactions.Likes = []string{"not-an-id"}
		assert.Error(t, ValidatePost(p))
	})

	t.Run("duplicate like violates the set invariant", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		dup := primitive.NewObjectID().Hex()
		p.Interactions.Likes = []string{dup, dup}
		err := ValidatePost(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})

	t.Run("duplicate forward violates the set invariant", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		dup := primitive.NewObjectID().Hex()
		p.Interactions.Forwards = []string{dup, dup}
		assert.Error(t, ValidatePost(p))
	})

	t.Run("comment author must be an id reference", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		p.Interactions.Comments[0].Author = "alice"
		assert.Error(t, ValidatePost(p))
	})

	t.Run("empty comment content", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		p.Interactions.Comments[0].Body.Content = ""
		assert.Error(t, ValidatePost(p))
	})

	t.Run("empty title or content", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		p.Title = ""
		assert.Error(t, ValidatePost(p))

		p = validStoredPost()
		p.Body.Content = ""
		assert.Error(t, ValidatePost(p))
	})

	t.Run("safe validator drops invalid documents", func(t *testing.T) {
		t.Parallel()
		p := validStoredPost()
		p.Author = "nope"
		got, ok := ValidatePostSafe(p)
		assert.False(t, ok)
		assert.Nil(t, got)

		got, ok = ValidatePostSafe(validStoredPost())
		assert.True(t, ok)
		assert.NotNil(t, got)
	})
}
