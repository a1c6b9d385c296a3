package store

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/socialnet/backend/internal/models"
)

// MemoryStore implements the user, post and notification contracts in
// process memory. It backs STORE_BACKEND=memory and the handler tests.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	posts         map[string]*models.Post
	notifications []models.Notification
	now           func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*models.User),
		posts: make(map[string]*models.Post),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock used for notification timestamps.
func (s *MemoryStore) WithNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Followers = u.Followers.Clone()
	c.Following = u.Following.Clone()
	c.LikedPosts = u.LikedPosts.Clone()
	return &c
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Likes = p.Likes.Clone()
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

// ── Users ────────────────────────────────────────────────

func (s *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.uniqueLocked(u); err != nil {
		return err
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("%w: id", ErrConflict)
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *MemoryStore) uniqueLocked(u *models.User) error {
	for _, existing := range s.users {
		if existing.ID == u.ID {
			continue
		}
		if existing.Username == u.Username {
			return ErrUsernameTaken
		}
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	return nil
}

func (s *MemoryStore) UserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *MemoryStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *MemoryStore) UserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email })
}

func (s *MemoryStore) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if err := s.uniqueLocked(u); err != nil {
		return err
	}
	existing.Username = u.Username
	existing.Email = u.Email
	existing.Password = u.Password
	existing.FullName = u.FullName
	existing.Bio = u.Bio
	existing.Link = u.Link
	existing.ProfileImg = u.ProfileImg
	existing.CoverImg = u.CoverImg
	existing.UpdatedAt = u.UpdatedAt
	return nil
}

func (s *MemoryStore) Follow(_ context.Context, actorID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.users[targetID]
	if !ok {
		return false, nil
	}
	if !target.Followers.Add(actorID) {
		return false, nil
	}
	if actor, ok := s.users[actorID]; ok {
		actor.Following.Add(targetID)
	}
	return true, nil
}

func (s *MemoryStore) Unfollow(_ context.Context, actorID, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.users[targetID]
	if !ok {
		return false, nil
	}
	if !target.Followers.Remove(actorID) {
		return false, nil
	}
	if actor, ok := s.users[actorID]; ok {
		actor.Following.Remove(targetID)
	}
	return true, nil
}

func (s *MemoryStore) AddLikedPost(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LikedPosts.Add(postID)
	}
	return nil
}

func (s *MemoryStore) RemoveLikedPost(_ context.Context, userID, postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.LikedPosts.Remove(postID)
	}
	return nil
}

func (s *MemoryStore) SampleUsers(_ context.Context, excludeID string, size int) ([]models.User, error) {
	s.mu.RLock()
	var out []models.User
	for _, u := range s.users {
		if u.ID != excludeID {
			out = append(out, *copyUser(u))
		}
	}
	s.mu.RUnlock()

	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > size {
		out = out[:size]
	}
	return out, nil
}

// ── Posts ────────────────────────────────────────────────

func (s *MemoryStore) InsertPost(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[p.ID]; ok {
		return fmt.Errorf("%w: post id", ErrConflict)
	}
	s.posts[p.ID] = copyPost(p)
	return nil
}

func (s *MemoryStore) PostByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPost(p), nil
}

func (s *MemoryStore) DeletePost(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *MemoryStore) AddLike(_ context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return false, nil
	}
	return p.Likes.Add(userID), nil
}

func (s *MemoryStore) RemoveLike(_ context.Context, postID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return false, nil
	}
	return p.Likes.Remove(userID), nil
}

func (s *MemoryStore) AppendComment(_ context.Context, postID string, c models.Comment) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	p.UpdatedAt = c.CreatedAt
	return copyPost(p), nil
}

func (s *MemoryStore) ListPosts(_ context.Context, f PostFilter) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var authors map[string]bool
	if f.Authors != nil {
		authors = make(map[string]bool, len(f.Authors))
		for _, a := range f.Authors {
			authors[a] = true
		}
	}

	var out []models.Post
	for _, p := range s.posts {
		if authors != nil && !authors[p.UserID] {
			continue
		}
		if f.LikedBy != "" && !p.Likes.Has(f.LikedBy) {
			continue
		}
		out = append(out, *copyPost(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ── Notifications ────────────────────────────────────────

func (s *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uuid.NewString()
	n.Read = false
	n.CreatedAt = s.now()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, to string) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].To == to {
			out = append(out, s.notifications[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkNotificationsRead(_ context.Context, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].To == to {
			s.notifications[i].Read = true
		}
	}
	return nil
}

func (s *MemoryStore) DeleteNotifications(_ context.Context, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.To != to {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

// MemoryMedia records uploads and deletions instead of calling a media host.
type MemoryMedia struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func NewMemoryMedia() *MemoryMedia {
	return &MemoryMedia{objects: make(map[string][]byte)}
}

func (m *MemoryMedia) Upload(_ context.Context, dataURI string) (string, error) {
	contentType, data, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := newObjectKey(contentType)
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return "memory://media/" + key, nil
}

func (m *MemoryMedia) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := KeyFromRef(ref)
	delete(m.objects, key)
	m.deleted = append(m.deleted, ref)
	return nil
}

// Deleted lists every reference passed to Delete, in order.
func (m *MemoryMedia) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Stored reports how many objects are currently held.
func (m *MemoryMedia) Stored() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
