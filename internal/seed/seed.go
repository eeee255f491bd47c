// Package seed populates the database with demo data for local development.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fullmoon-jpg/paceon-sub000/internal/models"
)

// DemoPassword is the password every seeded account gets, so demo logins work.
const DemoPassword = "DemoPassword12!"

// Categories posts are spread across. Mirrors the tags the web client offers.
var categories = []string{
	"running", "cycling", "swimming", "climbing",
	"events", "training", "gear", "general",
}

// Options controls how much data the seeder generates.
type Options struct {
	Users    int
	Posts    int
	Comments int
	Clean    bool
}

// Seeder generates demo users, posts and engagement.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll wipes seeded tables in FK-safe order.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{
		&models.Comment{}, &models.Like{}, &models.Save{},
		&models.Post{}, &models.User{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds the database per opts.
func (s *Seeder) Run(opts Options) error {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	users, err := s.createUsers(opts.Users)
	if err != nil {
		return err
	}
	posts, err := s.createPosts(users, opts.Posts)
	if err != nil {
		return err
	}
	if err := s.createComments(users, posts, opts.Comments); err != nil {
		return err
	}
	return s.createReactions(users, posts)
}

func (s *Seeder) createUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999))
		user := models.User{
			Username:    username,
			Email:       gofakeit.Email(),
			Password:    string(hash),
			DisplayName: gofakeit.Name(),
			AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
			Role:        models.RoleMember,
		}
		// First seeded account is the demo admin.
		if i == 0 {
			user.Username = "demoadmin"
			user.Email = "admin@paceon.local"
			user.Role = models.RoleAdmin
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %q: %w", user.Username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createPosts(users []models.User, count int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.rng.Intn(len(users))]
		post := models.Post{
			UserID:   author.ID,
			Body:     gofakeit.Paragraph(1, 3, 8, "\n"),
			Category: categories[s.rng.Intn(len(categories))],
			// Spread creation times so pagination and "since" queries have
			// something to chew on.
			CreatedAt: time.Now().Add(-time.Duration(s.rng.Intn(14*24)) * time.Hour),
		}
		if s.rng.Intn(3) == 0 {
			post.Location = gofakeit.City()
		}
		if s.rng.Intn(4) == 0 {
			post.MediaURLs = models.MediaList{
				fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
			}
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) createComments(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		comment := models.Comment{
			PostID: posts[s.rng.Intn(len(posts))].ID,
			UserID: users[s.rng.Intn(len(users))].ID,
			Body:   gofakeit.Sentence(8),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
	}
	return nil
}

// createReactions gives each post a random set of likes and a few saves.
func (s *Seeder) createReactions(users []models.User, posts []models.Post) error {
	for _, post := range posts {
		likers := s.rng.Intn(len(users) + 1)
		for _, user := range s.rng.Perm(len(users))[:likers] {
			like := models.Like{UserID: users[user].ID, PostID: post.ID}
			if err := s.db.Create(&like).Error; err != nil {
				return fmt.Errorf("create like: %w", err)
			}
		}

		savers := s.rng.Intn(len(users)/4 + 1)
		for _, user := range s.rng.Perm(len(users))[:savers] {
			save := models.Save{UserID: users[user].ID, PostID: post.ID}
			if err := s.db.Create(&save).Error; err != nil {
				return fmt.Errorf("create save: %w", err)
			}
		}
	}
	return nil
}
