// Package main provides a tool to seed the database with development fixtures.
//
// This creates a demo user with a handful of tags, collections, and
// bookmarks so the API has data to serve during development.
//
// Usage:
//
//	DB_PATH=~/ReadLater/data/db go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/readlaterapp/readlater-server/internal/auth"
	"github.com/readlaterapp/readlater-server/internal/domain"
	"github.com/readlaterapp/readlater-server/internal/id"
	"github.com/readlaterapp/readlater-server/internal/store"
)

var (
	email    = flag.String("email", "demo@example.com", "Email for the demo user")
	password = flag.String("password", "demopassword", "Password for the demo user")
)

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ReadLater/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user, err := seedUser(ctx, s)
	if err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}

	if err := seedBookmarks(ctx, s, user.ID); err != nil {
		log.Fatalf("Failed to seed bookmarks: %v", err)
	}

	fmt.Printf("Seeded demo data for %s (password: %s)\n", *email, *password)
}

func seedUser(ctx context.Context, s *store.Store) (*domain.User, error) {
	if existing, err := s.GetUserByEmail(ctx, *email); err == nil {
		fmt.Println("Demo user already exists, reusing")
		return existing, nil
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     "demo",
		Email:        *email,
		PasswordHash: hash,
	}
	user.ID = id.MustGenerate(id.PrefixUser)
	user.InitTimestamps()

	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	fmt.Printf("Created demo user %s\n", user.ID)
	return user, nil
}

func seedBookmarks(ctx context.Context, s *store.Store, userID string) error {
	golang, _, err := s.FindOrCreateTag(ctx, userID, "golang")
	if err != nil {
		return err
	}
	reading, _, err := s.FindOrCreateTag(ctx, userID, "reading")
	if err != nil {
		return err
	}

	collection := &domain.Collection{
		UserID:      userID,
		Name:        "Tech Articles",
		Description: "Long-form engineering posts",
		Icon:        domain.DefaultCollectionIcon,
	}
	collection.ID = id.MustGenerate(id.PrefixCollection)
	collection.InitTimestamps()
	if err := s.CreateCollection(ctx, collection); err != nil {
		fmt.Println("Collection already exists, skipping")
		collection = nil
	}

	fixtures := []struct {
		url, title, description string
		tags                    []string
		unread                  bool
	}{
		{
			url:         "https://go.dev/blog/error-handling-and-go",
			title:       "Error handling and Go",
			description: "How Go programs signal and handle errors.",
			tags:        []string{golang.ID},
			unread:      true,
		},
		{
			url:         "https://go.dev/blog/slices-intro",
			title:       "Go Slices: usage and internals",
			description: "A close look at the slice type.",
			tags:        []string{golang.ID, reading.ID},
			unread:      true,
		},
		{
			url:         "https://en.wikipedia.org/wiki/Readability",
			title:       "Readability",
			description: "What makes text easy to read.",
			tags:        []string{reading.ID},
			unread:      false,
		},
	}

	created := 0
	for i, f := range fixtures {
		b := &domain.Bookmark{
			UserID:      userID,
			URL:         f.url,
			Title:       f.title,
			Description: f.description,
			IsUnread:    f.unread,
			Tags:        f.tags,
		}
		if collection != nil {
			b.Collections = []string{collection.ID}
		}
		b.ID = id.MustGenerate(id.PrefixBookmark)
		b.InitTimestamps()
		// Spread creation times so sorting and the recent window have
		// something to work with
		b.CreatedAt = time.Now().Add(-time.Duration(i*24) * time.Hour)

		if err := s.CreateBookmark(ctx, b); err != nil {
			return err
		}
		created++
	}

	fmt.Printf("Created %d bookmarks\n", created)
	return nil
}
