// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"forum/internal/models"
	"forum/internal/repository"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// SeedPassword is the shared password of every generated account.
const SeedPassword = "password123"

// Seed populates the database with generated users and posts.
func Seed(ctx context.Context, users repository.UserRepository, posts repository.PostRepository, opts Options) error {
	log.Printf("Seeding %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := Wipe(ctx, users, posts); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}
	creds := models.Credentials{
		Salt: string(hash[:29]),
		Hash: string(hash),
	}

	created := make([]*models.StoredUser, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		name := fmt.Sprintf("%s_%s%d",
			strings.ToLower(gofakeit.FirstName()),
			strings.ToLower(gofakeit.LastName()),
			gofakeit.Number(10, 99),
		)
		user, err := users.Create(ctx, &models.StoredUser{
			Name:        name,
			Email:       gofakeit.Email(),
			Credentials: creds,
		})
		if err != nil {
			// Generated names can collide; skip and keep going.
			continue
		}
		created = append(created, user)
	}
	if len(created) == 0 {
		return fmt.Errorf("seeding produced no users")
	}
	log.Printf("Created %d users (password %q)", len(created), SeedPassword)

	for i := 0; i < opts.NumPosts; i++ {
		author := created[rand.Intn(len(created))]
		post := &models.StoredPost{
			Author: author.ID.Hex(),
			Title:  gofakeit.Sentence(gofakeit.Number(3, 8)),
			Body: models.PostBody{
				Content: gofakeit.Paragraph(1, gofakeit.Number(2, 5), gofakeit.Number(5, 15), " "),
				Images:  []string{},
			},
		}
		stored, err := posts.Create(ctx, post)
		if err != nil {
			return err
		}
		sprinkleInteractions(ctx, posts, stored, created)
	}
	log.Printf("Created %d posts", opts.NumPosts)
	return nil
}

// sprinkleInteractions adds a random spread of likes, forwards, and comments.
func sprinkleInteractions(ctx context.Context, posts repository.PostRepository, post *models.StoredPost, users []*models.StoredUser) {
	id := post.ID.Hex()
	for _, u := range users {
		if rand.Float64() < 0.3 {
			_, _ = posts.ToggleInteraction(ctx, id, repository.InteractionLike, u.ID.Hex())
		}
		if rand.Float64() < 0.1 {
			_, _ = posts.ToggleInteraction(ctx, id, repository.InteractionForward, u.ID.Hex())
		}
		if rand.Float64() < 0.2 {
			_, _ = posts.AddComment(ctx, id, models.Comment{
				Author:    u.ID.Hex(),
				Body:      models.CommentBody{Content: gofakeit.Sentence(gofakeit.Number(4, 12))},
				CreatedAt: time.Now().UTC(),
			})
		}
	}
}

// Wipe removes all users and posts.
func Wipe(ctx context.Context, users repository.UserRepository, posts repository.PostRepository) error {
	if err := posts.DeleteAll(ctx); err != nil {
		return err
	}
	if err := users.DeleteAll(ctx); err != nil {
		return err
	}
	log.Println("Cleared existing data")
	return nil
}
