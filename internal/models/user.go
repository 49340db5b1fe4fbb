// Package models contains data structures for the application's domain documents.
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credentials holds password verification material. The hash is produced by
// bcrypt; the salt is retained as a discrete field for schema compatibility
// with stored documents even though bcrypt embeds it in the hash.
type Credentials struct {
	Salt string `bson:"salt" json:"salt"`
	Hash string `bson:"hash" json:"hash"`
}

// StoredUser is the persisted document shape of the "users" collection.
// Its identifier is the store-native ObjectID and must never cross the
// persistence boundary; convert with Serializable first.
type StoredUser struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Email       string             `bson:"email"`
	Credentials Credentials        `bson:"credentials"`
	IsAdmin     bool               `bson:"isAdmin"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

// User is the serializable view of a user: the identifier is coerced to a
// plain string and credentials are never rendered to JSON.
type User struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Credentials Credentials `json:"-"`
	IsAdmin     bool        `json:"is_admin"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Serializable converts the stored document into its wire-safe view.
func (u *StoredUser) Serializable() *User {
	return &User{
		ID:          u.ID.Hex(),
		Name:        u.Name,
		Email:       u.Email,
		Credentials: u.Credentials,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
