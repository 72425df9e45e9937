package seed

import (
	"fmt"
	"log"

	"socialapp/internal/models"

	"gorm.io/gorm"
)

// Seeder populates the database with a connected social graph, engagement
// on posts and a backlog of orders for the admin dashboard.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder with a fresh Factory.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying factory for ad hoc fixtures.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

const adminEmail = "admin@example.com"

// clearOrder lists tables children first so foreign keys never block a delete.
var clearOrder = []interface{}{
	&models.Notification{},
	&models.OrderStatusHistory{},
	&models.Order{},
	&models.CommentReaction{},
	&models.PostReaction{},
	&models.Comment{},
	&models.Post{},
	&models.Friendship{},
	&models.User{},
}

// ClearAll hard-deletes every seeded table.
func (s *Seeder) ClearAll() error {
	log.Println("🧹 Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range clearOrder {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

// SeedAdmin creates the dashboard admin account used as the actor for
// seeded order history.
func (s *Seeder) SeedAdmin() (*models.User, error) {
	if !s.factory.opts.DryRun {
		var existing models.User
		err := s.db.Where("email = ?", adminEmail).Limit(1).Find(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing.ID != 0 {
			return &existing, nil
		}
	}
	return s.factory.CreateUser(func(u *models.User) {
		u.Username = "admin"
		u.Email = adminEmail
		u.FullName = "Store Admin"
		u.IsAdmin = true
	})
}

// SeedSocialMesh creates count users and links each one to a few others.
// Roughly one edge in five stays pending.
func (s *Seeder) SeedSocialMesh(count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
	}

	edges := 0
	for i := range users {
		fanout := 1 + s.factory.rng.Intn(4)
		for step := 1; step <= fanout && i+step < len(users); step++ {
			status := models.FriendshipStatusAccepted
			if s.factory.rng.Intn(5) == 0 {
				status = models.FriendshipStatusPending
			}
			if _, err := s.factory.CreateFriendship(users[i], users[i+step], status); err != nil {
				return nil, fmt.Errorf("create friendship: %w", err)
			}
			edges++
		}
	}
	log.Printf("✓ %d users, %d friendships", len(users), edges)
	return users, nil
}

// friendIndex maps each user to the users they may react to.
func (s *Seeder) friendIndex(users []*models.User) (map[uint][]*models.User, error) {
	byID := make(map[uint]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	index := make(map[uint][]*models.User, len(users))
	if s.factory.opts.DryRun {
		return index, nil
	}

	var friendships []models.Friendship
	if err := s.db.Where("status = ?", models.FriendshipStatusAccepted).Find(&friendships).Error; err != nil {
		return nil, err
	}
	for _, f := range friendships {
		a, okA := byID[f.RequesterID]
		b, okB := byID[f.AddresseeID]
		if !okA || !okB {
			continue
		}
		index[a.ID] = append(index[a.ID], b)
		index[b.ID] = append(index[b.ID], a)
	}
	return index, nil
}

// Engagement summarizes what SeedEngagement created.
type Engagement struct {
	Posts            []*models.Post
	Comments         int
	PostReactions    int
	CommentReactions int
}

// SeedEngagement spreads numPosts posts across users. Comments and reactions
// only come from accepted friends of the author, matching what the API allows.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts int) (*Engagement, error) {
	out := &Engagement{}
	if len(users) == 0 || numPosts <= 0 {
		return out, nil
	}

	posts := make([]*models.Post, 0, numPosts)
	authors := make(map[*models.Post]*models.User, numPosts)
	for i := 0; i < numPosts; i++ {
		author := users[s.factory.rng.Intn(len(users))]
		post := s.factory.BuildPost(author)
		posts = append(posts, post)
		authors[post] = author
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	out.Posts = posts

	friends, err := s.friendIndex(users)
	if err != nil {
		return nil, fmt.Errorf("load friendships: %w", err)
	}

	for _, post := range posts {
		circle := friends[authors[post].ID]
		for _, friend := range circle {
			if s.factory.rng.Intn(2) == 0 {
				if err := s.factory.CreatePostReaction(friend, post, s.factory.RandomPostReaction()); err != nil {
					return nil, fmt.Errorf("react to post %d: %w", post.ID, err)
				}
				out.PostReactions++
			}
			if s.factory.rng.Intn(3) != 0 {
				continue
			}
			comment, err := s.factory.CreateComment(friend, post)
			if err != nil {
				return nil, fmt.Errorf("comment on post %d: %w", post.ID, err)
			}
			out.Comments++

			// The post author is a friend of every commenter in the circle.
			if s.factory.rng.Intn(2) == 0 {
				if err := s.factory.CreateCommentReaction(authors[post], comment, s.factory.RandomCommentReaction()); err != nil {
					return nil, fmt.Errorf("react to comment %d: %w", comment.ID, err)
				}
				out.CommentReactions++
			}
		}
	}

	log.Printf("✓ %d posts, %d comments, %d post reactions, %d comment reactions",
		len(out.Posts), out.Comments, out.PostReactions, out.CommentReactions)
	return out, nil
}

// SeedOrders creates count orders for random customers with history
// attributed to admin.
func (s *Seeder) SeedOrders(customers []*models.User, admin *models.User, count int) ([]*models.Order, error) {
	if len(customers) == 0 || count <= 0 {
		return nil, nil
	}
	orders := make([]*models.Order, 0, count)
	for i := 0; i < count; i++ {
		customer := customers[s.factory.rng.Intn(len(customers))]
		order, err := s.factory.CreateOrder(customer, admin)
		if err != nil {
			return nil, fmt.Errorf("create order %d: %w", i, err)
		}
		orders = append(orders, order)
	}
	log.Printf("✓ %d orders", len(orders))
	return orders, nil
}
