// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"socialapp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plain-text password of every seeded user.
const DefaultPassword = "password123"

// Options tunes the factory and seeder.
type Options struct {
	// MaxDays bounds how far back created_at timestamps are spread.
	MaxDays int
	// SkipBcrypt stores a cheap placeholder hash; tests use it to stay fast.
	SkipBcrypt bool
	// DryRun builds entities with synthetic IDs and never writes.
	DryRun bool
	// RandSeed makes generated data reproducible when non-zero.
	RandSeed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	rng    *rand.Rand
	hash   string
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)),
		nextID: 1000,
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	if f.opts.SkipBcrypt {
		f.hash = "seeded-" + DefaultPassword
		return f.hash, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	f.hash = string(hashed)
	return f.hash, nil
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

func (f *Factory) synthetic() uint {
	f.nextID++
	return f.nextID
}

func (f *Factory) create(value interface{}) error {
	return f.db.Create(value).Error
}

// CreateUser persists a user with fake profile data.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	first, last := f.faker.FirstName(), f.faker.LastName()
	handle := strings.ToLower(first + "_" + last)
	suffix := f.faker.Number(100, 99999)
	user := &models.User{
		Username: fmt.Sprintf("%s%d", handle, suffix),
		Email:    fmt.Sprintf("%s.%d@example.com", handle, suffix),
		FullName: first + " " + last,
		Password: hash,
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.synthetic()
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post without persisting it.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Content:   f.faker.Paragraph(1, 3, 12, "\n"),
		UserID:    user.ID,
		CreatedAt: f.pastTime(),
	}
	if f.rng.Intn(3) == 0 {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = f.synthetic()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts", len(posts))
		return nil
	}
	return f.db.CreateInBatches(&posts, 100).Error
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(f.faker.Number(4, 16)),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	for _, override := range overrides {
		override(comment)
	}
	if f.opts.DryRun {
		comment.ID = f.synthetic()
		return comment, nil
	}
	if err := f.create(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFriendship persists a friendship edge from requester to addressee.
func (f *Factory) CreateFriendship(requester, addressee *models.User, status models.FriendshipStatus) (*models.Friendship, error) {
	friendship := &models.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
		Status:      status,
	}
	if f.opts.DryRun {
		friendship.ID = f.synthetic()
		return friendship, nil
	}
	if err := f.create(friendship); err != nil {
		return nil, err
	}
	return friendship, nil
}

// RandomPostReaction picks one of the post reaction types.
func (f *Factory) RandomPostReaction() models.ReactionType {
	types := models.AllPostReactionTypes()
	return types[f.rng.Intn(len(types))]
}

// RandomCommentReaction favours LIKE over DISLIKE roughly four to one.
func (f *Factory) RandomCommentReaction() models.ReactionType {
	if f.rng.Intn(5) == 0 {
		return models.ReactionDislike
	}
	return models.ReactionLike
}

// CreatePostReaction persists a reaction by user on post.
func (f *Factory) CreatePostReaction(user *models.User, post *models.Post, reaction models.ReactionType) error {
	if f.opts.DryRun {
		return nil
	}
	return f.create(&models.PostReaction{PostID: post.ID, UserID: user.ID, ReactionType: reaction})
}

// CreateCommentReaction persists a reaction by user on comment.
func (f *Factory) CreateCommentReaction(user *models.User, comment *models.Comment, reaction models.ReactionType) error {
	if f.opts.DryRun {
		return nil
	}
	return f.create(&models.CommentReaction{CommentID: comment.ID, UserID: user.ID, ReactionType: reaction})
}

// orderPath walks the lifecycle to a random reachable status and returns the
// visited statuses, starting after pending.
func (f *Factory) orderPath() []models.OrderStatus {
	current := models.OrderStatusPending
	var path []models.OrderStatus
	for f.rng.Intn(3) != 0 {
		var next []models.OrderStatus
		for _, candidate := range models.AllOrderStatuses {
			if current.CanTransitionTo(candidate) {
				next = append(next, candidate)
			}
		}
		if len(next) == 0 {
			break
		}
		current = next[f.rng.Intn(len(next))]
		path = append(path, current)
	}
	return path
}

func paymentFor(status models.OrderStatus, roll int) models.PaymentStatus {
	switch status {
	case models.OrderStatusPending:
		if roll%4 == 0 {
			return models.PaymentStatusFailed
		}
		return models.PaymentStatusPending
	case models.OrderStatusCancelled:
		if roll%2 == 0 {
			return models.PaymentStatusRefunded
		}
		return models.PaymentStatusPending
	default:
		return models.PaymentStatusPaid
	}
}

// CreateOrder persists an order for customer with a plausible status
// history recorded against actor.
func (f *Factory) CreateOrder(customer, actor *models.User, overrides ...func(*models.Order)) (*models.Order, error) {
	path := f.orderPath()
	status := models.OrderStatusPending
	if len(path) > 0 {
		status = path[len(path)-1]
	}

	addr := f.faker.Address()
	created := f.pastTime()
	order := &models.Order{
		OrderNumber:     fmt.Sprintf("ORD-%s-%s", created.Format("20060102"), strings.ToUpper(f.faker.UUID()[:8])),
		UserID:          customer.ID,
		Status:          status,
		PaymentStatus:   paymentFor(status, f.rng.Int()),
		TotalCents:      int64(f.faker.Number(500, 250000)),
		Currency:        "USD",
		ShippingAddress: fmt.Sprintf("%s, %s, %s %s", addr.Street, addr.City, addr.State, addr.Zip),
		CreatedAt:       created,
	}
	for _, override := range overrides {
		override(order)
	}
	if f.opts.DryRun {
		order.ID = f.synthetic()
		return order, nil
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		from := models.OrderStatusPending
		for _, to := range path {
			entry := &models.OrderStatusHistory{
				OrderID:   order.ID,
				ActorID:   actor.ID,
				Field:     "status",
				FromValue: string(from),
				ToValue:   string(to),
			}
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
			from = to
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
