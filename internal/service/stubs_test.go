package service

import (
	"context"
	"sync"
	"time"

	"socialapp/internal/models"
	"socialapp/internal/notifications"
	"socialapp/internal/repository"
)

// txStub runs the unit of work inline and counts how often it was used.
type txStub struct {
	calls int
}

func (s *txStub) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	return fn(ctx)
}

type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	existsFn     func(context.Context, uint) (bool, error)
	createFn     func(context.Context, *models.User) error
	setAdminFn   func(context.Context, uint, bool) error
	listAdminsFn func(context.Context) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	return s.setAdminFn(ctx, id, isAdmin)
}
func (s *userRepoStub) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.listAdminsFn(ctx)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user", Email: "user@example.com", FullName: "Some User"}, nil
		},
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		existsFn:     func(context.Context, uint) (bool, error) { return true, nil },
		createFn:     func(context.Context, *models.User) error { return nil },
		setAdminFn:   func(context.Context, uint, bool) error { return nil },
		listAdminsFn: func(context.Context) ([]models.User, error) { return nil, nil },
	}
}

type friendRepoStub struct {
	createFn                    func(context.Context, *models.Friendship) error
	getByIDFn                   func(context.Context, uint) (*models.Friendship, error)
	getFriendshipBetweenUsersFn func(context.Context, uint, uint) (*models.Friendship, error)
	getFriendsFn                func(context.Context, uint) ([]models.User, error)
	getPendingRequestsFn        func(context.Context, uint) ([]models.Friendship, error)
	getSentRequestsFn           func(context.Context, uint) ([]models.Friendship, error)
	updateStatusFn              func(context.Context, uint, models.FriendshipStatus) error
	deleteFn                    func(context.Context, uint) error
	removeFriendshipFn          func(context.Context, uint, uint) error
	areFriendsFn                func(context.Context, uint, uint) (bool, error)
}

func (s *friendRepoStub) Create(ctx context.Context, friendship *models.Friendship) error {
	return s.createFn(ctx, friendship)
}
func (s *friendRepoStub) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRepoStub) GetFriendshipBetweenUsers(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error) {
	return s.getFriendshipBetweenUsersFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFriendsFn(ctx, userID)
}
func (s *friendRepoStub) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getPendingRequestsFn(ctx, userID)
}
func (s *friendRepoStub) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getSentRequestsFn(ctx, userID)
}
func (s *friendRepoStub) UpdateStatus(ctx context.Context, friendshipID uint, status models.FriendshipStatus) error {
	return s.updateStatusFn(ctx, friendshipID, status)
}
func (s *friendRepoStub) Delete(ctx context.Context, friendshipID uint) error {
	return s.deleteFn(ctx, friendshipID)
}
func (s *friendRepoStub) RemoveFriendship(ctx context.Context, userID1, userID2 uint) error {
	return s.removeFriendshipFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.areFriendsFn(ctx, userID1, userID2)
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createFn:                    func(context.Context, *models.Friendship) error { return nil },
		getByIDFn:                   func(context.Context, uint) (*models.Friendship, error) { return &models.Friendship{}, nil },
		getFriendshipBetweenUsersFn: func(context.Context, uint, uint) (*models.Friendship, error) { return nil, nil },
		getFriendsFn:                func(context.Context, uint) ([]models.User, error) { return nil, nil },
		getPendingRequestsFn:        func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		getSentRequestsFn:           func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		updateStatusFn:              func(context.Context, uint, models.FriendshipStatus) error { return nil },
		deleteFn:                    func(context.Context, uint) error { return nil },
		removeFriendshipFn:          func(context.Context, uint, uint) error { return nil },
		areFriendsFn:                func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
}

// friendsWith returns a friend repo where only the listed pairs are friends.
func friendsWith(pairs ...[2]uint) *friendRepoStub {
	repo := noopFriendRepo()
	repo.areFriendsFn = func(_ context.Context, a, b uint) (bool, error) {
		for _, p := range pairs {
			if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
				return true, nil
			}
		}
		return false, nil
	}
	return repo
}

type postRepoStub struct {
	posts map[uint]*models.Post
}

func (s *postRepoStub) Create(_ context.Context, post *models.Post) error {
	s.posts[post.ID] = post
	return nil
}
func (s *postRepoStub) GetByID(_ context.Context, id uint) (*models.Post, error) {
	if p, ok := s.posts[id]; ok {
		return p, nil
	}
	return nil, models.NewNotFoundMessage("Post not found")
}
func (s *postRepoStub) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := s.posts[id]
	return ok, nil
}

type commentRepoStub struct {
	comments map[uint]*models.Comment
}

func (s *commentRepoStub) Create(_ context.Context, comment *models.Comment) error {
	s.comments[comment.ID] = comment
	return nil
}
func (s *commentRepoStub) GetByID(_ context.Context, id uint) (*models.Comment, error) {
	if c, ok := s.comments[id]; ok {
		return c, nil
	}
	return nil, models.NewNotFoundMessage("Comment not found")
}
func (s *commentRepoStub) Exists(_ context.Context, id uint) (bool, error) {
	_, ok := s.comments[id]
	return ok, nil
}

// memPostReactions is an in-memory PostReactionRepository keyed by (post, user).
type memPostReactions struct {
	mu     sync.Mutex
	nextID uint
	rows   map[[2]uint]*models.PostReaction
}

func newMemPostReactions() *memPostReactions {
	return &memPostReactions{rows: make(map[[2]uint]*models.PostReaction)}
}

func (m *memPostReactions) FindByPostAndUser(_ context.Context, postID, userID uint) (*models.PostReaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rows[[2]uint{postID, userID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}
func (m *memPostReactions) Create(_ context.Context, r *models.PostReaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uint{r.PostID, r.UserID}
	if _, ok := m.rows[key]; ok {
		return models.NewConflictError("Reaction already exists")
	}
	m.nextID++
	r.ID = m.nextID
	r.CreatedAt = time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC)
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.rows[key] = &cp
	return nil
}
func (m *memPostReactions) UpdateType(_ context.Context, r *models.PostReaction, t models.ReactionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.rows[[2]uint{r.PostID, r.UserID}]
	stored.ReactionType = t
	r.ReactionType = t
	return nil
}
func (m *memPostReactions) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, r := range m.rows {
		if r.ID == id {
			delete(m.rows, k)
		}
	}
	return nil
}
func (m *memPostReactions) CountByType(_ context.Context, postID uint) (map[models.ReactionType]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[models.ReactionType]int64{}
	for k, r := range m.rows {
		if k[0] == postID {
			out[r.ReactionType]++
		}
	}
	return out, nil
}

// memCommentReactions is an in-memory CommentReactionRepository keyed by (comment, user).
type memCommentReactions struct {
	nextID uint
	rows   map[[2]uint]*models.CommentReaction
}

func newMemCommentReactions() *memCommentReactions {
	return &memCommentReactions{rows: make(map[[2]uint]*models.CommentReaction)}
}

func (m *memCommentReactions) FindByCommentAndUser(_ context.Context, commentID, userID uint) (*models.CommentReaction, error) {
	if r, ok := m.rows[[2]uint{commentID, userID}]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}
func (m *memCommentReactions) Create(_ context.Context, r *models.CommentReaction) error {
	m.nextID++
	r.ID = m.nextID
	cp := *r
	m.rows[[2]uint{r.CommentID, r.UserID}] = &cp
	return nil
}
func (m *memCommentReactions) UpdateType(_ context.Context, r *models.CommentReaction, t models.ReactionType) error {
	m.rows[[2]uint{r.CommentID, r.UserID}].ReactionType = t
	r.ReactionType = t
	return nil
}
func (m *memCommentReactions) Delete(_ context.Context, id uint) error {
	for k, r := range m.rows {
		if r.ID == id {
			delete(m.rows, k)
		}
	}
	return nil
}
func (m *memCommentReactions) CountByType(_ context.Context, commentID uint) (map[models.ReactionType]int64, error) {
	out := map[models.ReactionType]int64{}
	for k, r := range m.rows {
		if k[0] == commentID {
			out[r.ReactionType]++
		}
	}
	return out, nil
}

type sentLike struct {
	recipient uint
	actor     uint
	postID    uint
	commentID uint
	kind      models.ReactionType
}

// notifierSpy records like notifications instead of sending them.
type notifierSpy struct {
	sent []sentLike
	err  error
}

func (s *notifierSpy) SendLikeNotification(_ context.Context, recipientID uint, actor *models.User, postID uint, t models.ReactionType) error {
	s.sent = append(s.sent, sentLike{recipient: recipientID, actor: actor.ID, postID: postID, kind: t})
	return s.err
}

func (s *notifierSpy) SendCommentLikeNotification(_ context.Context, recipientID uint, actor *models.User, postID, commentID uint) error {
	s.sent = append(s.sent, sentLike{recipient: recipientID, actor: actor.ID, postID: postID, commentID: commentID, kind: models.ReactionLike})
	return s.err
}

type notificationRepoStub struct {
	created       []*models.Notification
	createErr     error
	listByUserFn  func(context.Context, uint, int, int) ([]models.Notification, error)
	markReadFn    func(context.Context, uint, uint) error
	countUnreadFn func(context.Context, uint) (int64, error)
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	n.ID = uint(len(s.created) + 1)
	s.created = append(s.created, n)
	return nil
}
func (s *notificationRepoStub) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.listByUserFn(ctx, userID, limit, offset)
}
func (s *notificationRepoStub) MarkRead(ctx context.Context, userID, id uint) error {
	return s.markReadFn(ctx, userID, id)
}
func (s *notificationRepoStub) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.countUnreadFn(ctx, userID)
}

type publishedEvent struct {
	userID uint
	event  notifications.Event
}

type publisherSpy struct {
	events   []publishedEvent
	err      error
	disabled bool
}

func (p *publisherSpy) Enabled() bool { return !p.disabled }

func (p *publisherSpy) PublishEvent(_ context.Context, userID uint, ev notifications.Event) error {
	p.events = append(p.events, publishedEvent{userID: userID, event: ev})
	return p.err
}

// memOrders is an in-memory OrderRepository for the admin service tests.
type memOrders struct {
	orders  map[uint]*models.Order
	history []models.OrderStatusHistory
	failOn  map[uint]error

	lastFilter repository.OrderFilter
	lastLimit  int
	lastOffset int
}

func newMemOrders(orders ...*models.Order) *memOrders {
	m := &memOrders{orders: make(map[uint]*models.Order), failOn: make(map[uint]error)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) Create(_ context.Context, o *models.Order) error {
	m.orders[o.ID] = o
	return nil
}
func (m *memOrders) List(_ context.Context, f repository.OrderFilter, limit, offset int) ([]models.Order, int64, error) {
	m.lastFilter, m.lastLimit, m.lastOffset = f, limit, offset
	out := make([]models.Order, 0, len(m.orders))
	for id := uint(1); id <= uint(len(m.orders)); id++ {
		if o, ok := m.orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}
func (m *memOrders) GetByID(_ context.Context, id uint) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, models.NewNotFoundError("Order", id)
	}
	cp := *o
	return &cp, nil
}
func (m *memOrders) GetByIDs(ctx context.Context, ids []uint) ([]models.Order, error) {
	var out []models.Order
	for _, id := range ids {
		if o, ok := m.orders[id]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}
func (m *memOrders) GetByIDForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	if err := m.failOn[id]; err != nil {
		return nil, err
	}
	return m.GetByID(ctx, id)
}
func (m *memOrders) UpdateStatus(_ context.Context, id uint, status models.OrderStatus, note string) error {
	m.orders[id].Status = status
	if note != "" {
		m.orders[id].AdminNote = note
	}
	return nil
}
func (m *memOrders) UpdatePaymentStatus(_ context.Context, id uint, status models.PaymentStatus) error {
	m.orders[id].PaymentStatus = status
	return nil
}
func (m *memOrders) AddHistory(_ context.Context, entry *models.OrderStatusHistory) error {
	m.history = append(m.history, *entry)
	return nil
}
func (m *memOrders) History(_ context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var out []models.OrderStatusHistory
	for _, h := range m.history {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}
func (m *memOrders) StatusSummary(context.Context) (map[models.OrderStatus]int64, error) {
	out := make(map[models.OrderStatus]int64)
	for _, s := range models.AllOrderStatuses {
		out[s] = 0
	}
	for _, o := range m.orders {
		out[o.Status]++
	}
	return out, nil
}
func (m *memOrders) Stream(_ context.Context, _ repository.OrderFilter, _ int, maxRows int, fn func(*models.Order) error) error {
	seen := 0
	for id := uint(1); id <= uint(len(m.orders)); id++ {
		o, ok := m.orders[id]
		if !ok {
			continue
		}
		if maxRows > 0 && seen >= maxRows {
			return nil
		}
		if err := fn(o); err != nil {
			return err
		}
		seen++
	}
	return nil
}
