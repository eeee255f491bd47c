// Command seed populates the database with demo data.
package main

import (
	"flag"
	"log"

	"github.com/fullmoon-jpg/paceon-sub000/internal/config"
	"github.com/fullmoon-jpg/paceon-sub000/internal/database"
	"github.com/fullmoon-jpg/paceon-sub000/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	numComments := flag.Int("comments", 200, "Number of comments to create")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Printf("Seeding %d users, %d posts, %d comments (clean=%v)",
		*numUsers, *numPosts, *numComments, *clean)

	s := seed.NewSeeder(db)
	if err := s.Run(seed.Options{
		Users:    *numUsers,
		Posts:    *numPosts,
		Comments: *numComments,
		Clean:    *clean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done. All accounts use password %q", seed.DemoPassword)
}
