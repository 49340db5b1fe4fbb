package cache

import (
	"context"
	"fmt"
	"time"
)

// TTLs for cached read models. Writes invalidate eagerly, so these only
// bound staleness when an invalidation is lost.
const (
	PostTTL     = 5 * time.Minute
	PostListTTL = 30 * time.Second
	UserTTL     = 10 * time.Minute
)

// PostKey is the cache key for a single post read model.
func PostKey(id string) string {
	return fmt.Sprintf("post:%s", id)
}

// PostListKey is the cache key for the anonymous post listing.
func PostListKey() string {
	return "posts:all"
}

// UserPostsKey is the cache key for a user's post listing.
func UserPostsKey(userID string) string {
	return fmt.Sprintf("posts:user:%s", userID)
}

// UserKey is the cache key for a single user read model.
func UserKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// InvalidatePost drops all cached views affected by a write to the post.
func InvalidatePost(ctx context.Context, postID, authorID string) {
	keys := []string{PostKey(postID), PostListKey()}
	if authorID != "" {
		keys = append(keys, UserPostsKey(authorID))
	}
	Delete(ctx, keys...)
}

// InvalidateUser drops cached views affected by a write to the user.
func InvalidateUser(ctx context.Context, userID string) {
	Delete(ctx, UserKey(userID))
}
