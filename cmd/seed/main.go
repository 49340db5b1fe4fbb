// Command main seeds the database with generated development data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/repository"
	"forum/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "number of users to create")
	numPosts := flag.Int("posts", 50, "number of posts to create")
	wipe := flag.Bool("wipe", false, "clear existing data before seeding")
	wipeOnly := flag.Bool("wipe-only", false, "clear existing data and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Printf("error closing mongodb: %v", err)
		}
	}()

	users := repository.NewUserRepository(db.Users())
	posts := repository.NewPostRepository(db.Posts())

	if *wipeOnly {
		if err := seed.Wipe(ctx, users, posts); err != nil {
			log.Fatalf("Wipe failed: %v", err)
		}
		return
	}

	if err := seed.Seed(ctx, users, posts, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *wipe,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
