package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostBody is the text-and-image payload of a post.
type PostBody struct {
	Content string   `bson:"content" json:"content"`
	Images  []string `bson:"images" json:"images"`
}

// CommentBody is the text payload of an embedded comment.
type CommentBody struct {
	Content string `bson:"content" json:"content"`
}

// Comment is embedded in a post's interactions. Comments are append-only:
// ordering is insertion order and there is no edit or delete operation.
// Author is a user-id reference, never an embedded user snapshot.
type Comment struct {
	Author    string      `bson:"author" json:"author"`
	Body      CommentBody `bson:"body" json:"body"`
	CreatedAt time.Time   `bson:"createdAt" json:"created_at"`
}

// Interactions holds the denormalized interaction state of a post.
// Likes and Forwards are sets of user-id strings; membership is the ground
// truth and counts are derived as the set size.
type Interactions struct {
	Likes    []string  `bson:"likes" json:"likes"`
	Forwards []string  `bson:"forwards" json:"forwards"`
	Comments []Comment `bson:"comments" json:"comments"`
}

// StoredPost is the persisted document shape of the "posts" collection.
type StoredPost struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Author       string             `bson:"author"`
	Title        string             `bson:"title"`
	Body         PostBody           `bson:"body"`
	Interactions Interactions       `bson:"interactions"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// Post is the serializable view of a post. Counts and the current user's
// membership flags are derived from the interaction sets at conversion time
// and are never persisted.
type Post struct {
	ID           string       `json:"id"`
	Author       string       `json:"author"`
	AuthorUser   *User        `json:"author_user,omitempty"`
	Title        string       `json:"title"`
	Body         PostBody     `json:"body"`
	Interactions Interactions `json:"interactions"`
	// LikesCount is not persisted; derived from the likes set
	LikesCount int `json:"likes_count"`
	// ForwardsCount is not persisted; derived from the forwards set
	ForwardsCount int `json:"forwards_count"`
	// CommentsCount is not persisted; derived from the comment list
	CommentsCount int `json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (derived)
	Liked bool `json:"liked"`
	// Forwarded indicates whether the current requesting user forwarded this post (derived)
	Forwarded bool      `json:"forwarded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Serializable converts the stored document into its wire-safe view,
// deriving counts and the membership flags for currentUserID (empty for
// anonymous readers).
func (p *StoredPost) Serializable(currentUserID string) *Post {
	return &Post{
		ID:            p.ID.Hex(),
		Author:        p.Author,
		Title:         p.Title,
		Body:          p.Body,
		Interactions:  p.Interactions,
		LikesCount:    len(p.Interactions.Likes),
		ForwardsCount: len(p.Interactions.Forwards),
		CommentsCount: len(p.Interactions.Comments),
		Liked:         containsID(p.Interactions.Likes, currentUserID),
		Forwarded:     containsID(p.Interactions.Forwards, currentUserID),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
