// Package posts owns post lifecycle, likes, comments and the feed queries.
package posts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayush/socialnet/backend/internal/logging"
	"github.com/ayush/socialnet/backend/internal/metrics"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
)

var (
	ErrEmptyPost    = errors.New("post must have text or image")
	ErrEmptyComment = errors.New("text field is required")
	ErrPostNotFound = errors.New("post not found")
	ErrUserNotFound = errors.New("user not found")
	ErrNotOwner     = errors.New("you are not authorized to delete this post")
)

// PostStore defines post persistence.
type PostStore interface {
	InsertPost(ctx context.Context, p *models.Post) error
	PostByID(ctx context.Context, id string) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) (bool, error)
	RemoveLike(ctx context.Context, postID, userID string) (bool, error)
	AppendComment(ctx context.Context, postID string, c models.Comment) (*models.Post, error)
	ListPosts(ctx context.Context, f store.PostFilter) ([]models.Post, error)
}

// UserStore defines the user reads and liked-post bookkeeping posts need.
type UserStore interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	AddLikedPost(ctx context.Context, userID, postID string) error
	RemoveLikedPost(ctx context.Context, userID, postID string) error
}

// MediaStore defines the hosted image store.
type MediaStore interface {
	Upload(ctx context.Context, dataURI string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Notifier records like events for the post owner.
type Notifier interface {
	Emit(ctx context.Context, from, to string, kind models.NotificationType) error
}

// LikeResult is the like state after a toggle.
type LikeResult struct {
	Liked bool         `json:"liked"`
	Likes models.IDSet `json:"likes"`
}

type Service struct {
	posts    PostStore
	users    UserStore
	media    MediaStore
	notifier Notifier
	now      func() time.Time
}

func NewService(posts PostStore, users UserStore, media MediaStore, notifier Notifier) *Service {
	return &Service{
		posts:    posts,
		users:    users,
		media:    media,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the clock used for timestamps.
func (s *Service) WithNowFunc(now func() time.Time) {
	s.now = now
}

// Create stores a post for userID. The image, when present, is uploaded
// before the post is written.
func (s *Service) Create(ctx context.Context, userID string, req models.CreatePostRequest) (*models.Post, error) {
	if req.Text == "" && req.Img == "" {
		return nil, ErrEmptyPost
	}
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}

	var img string
	if req.Img != "" {
		ref, err := s.media.Upload(ctx, req.Img)
		if err != nil {
			metrics.MediaOperations.WithLabelValues("upload", "error").Inc()
			if errors.Is(err, store.ErrInvalidImage) {
				return nil, err
			}
			return nil, fmt.Errorf("upload post image: %w", err)
		}
		metrics.MediaOperations.WithLabelValues("upload", "ok").Inc()
		img = ref
	}

	now := s.now()
	p := &models.Post{
		ID:        store.NewID(),
		UserID:    userID,
		Text:      req.Text,
		Img:       img,
		Likes:     models.IDSet{},
		Comments:  []models.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.InsertPost(ctx, p); err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

// Delete removes postID if userID owns it, along with its hosted image.
func (s *Service) Delete(ctx context.Context, userID, postID string) error {
	p, err := s.post(ctx, postID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return ErrNotOwner
	}

	if p.Img != "" {
		if err := s.media.Delete(ctx, p.Img); err != nil {
			metrics.MediaOperations.WithLabelValues("delete", "error").Inc()
			return fmt.Errorf("delete post image: %w", err)
		}
		metrics.MediaOperations.WithLabelValues("delete", "ok").Inc()
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// ToggleLike likes postID for userID, or removes the like if present. The
// owner is notified only when a like is actually added.
func (s *Service) ToggleLike(ctx context.Context, userID, postID string) (LikeResult, error) {
	p, err := s.post(ctx, postID)
	if err != nil {
		return LikeResult{}, err
	}

	if p.Likes.Has(userID) {
		changed, err := s.posts.RemoveLike(ctx, postID, userID)
		if err != nil {
			return LikeResult{}, fmt.Errorf("remove like: %w", err)
		}
		if err := s.users.RemoveLikedPost(ctx, userID, postID); err != nil {
			return LikeResult{}, fmt.Errorf("remove liked post: %w", err)
		}
		if changed {
			metrics.LikeToggles.WithLabelValues("unlike").Inc()
		}
		likes := p.Likes.Clone()
		likes.Remove(userID)
		return LikeResult{Liked: false, Likes: likes}, nil
	}

	changed, err := s.posts.AddLike(ctx, postID, userID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("add like: %w", err)
	}
	if err := s.users.AddLikedPost(ctx, userID, postID); err != nil {
		return LikeResult{}, fmt.Errorf("add liked post: %w", err)
	}
	likes := p.Likes.Clone()
	likes.Add(userID)
	if !changed {
		logging.FromContext(ctx).Debug("like already applied", "user", userID, "post", postID)
		return LikeResult{Liked: true, Likes: likes}, nil
	}

	metrics.LikeToggles.WithLabelValues("like").Inc()
	if err := s.notifier.Emit(ctx, userID, p.UserID, models.NotificationLike); err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: true, Likes: likes}, nil
}

// Comment appends a comment by userID and returns the updated post.
// Comments produce no notification.
func (s *Service) Comment(ctx context.Context, userID, postID, text string) (*models.Post, error) {
	if text == "" {
		return nil, ErrEmptyComment
	}
	c := models.Comment{ID: store.NewID(), UserID: userID, Text: text, CreatedAt: s.now()}
	p, err := s.posts.AppendComment(ctx, postID, c)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return p, nil
}

// All returns every post, newest first.
func (s *Service) All(ctx context.Context) ([]models.PostView, error) {
	return s.feed(ctx, store.PostFilter{})
}

// LikedBy returns the posts userID has liked.
func (s *Service) LikedBy(ctx context.Context, userID string) ([]models.PostView, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return nil, err
	}
	return s.feed(ctx, store.PostFilter{LikedBy: userID})
}

// Following returns posts authored by the users userID follows.
func (s *Service) Following(ctx context.Context, userID string) ([]models.PostView, error) {
	me, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.feed(ctx, store.PostFilter{Authors: me.Following.Clone()})
}

// ByUser returns the posts authored by username.
func (s *Service) ByUser(ctx context.Context, username string) ([]models.PostView, error) {
	u, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return s.feed(ctx, store.PostFilter{Authors: []string{u.ID}})
}

func (s *Service) feed(ctx context.Context, f store.PostFilter) ([]models.PostView, error) {
	list, err := s.posts.ListPosts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return s.resolve(ctx, list)
}

// resolve attaches sanitized owners and comment authors to each post.
func (s *Service) resolve(ctx context.Context, list []models.Post) ([]models.PostView, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, p := range list {
		add(p.UserID)
		for _, c := range p.Comments {
			add(c.UserID)
		}
	}

	users, err := s.users.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve post users: %w", err)
	}
	lookup := func(id string) *models.User {
		u, ok := users[id]
		if !ok {
			return nil
		}
		sanitized := u.Sanitized()
		return &sanitized
	}

	views := make([]models.PostView, 0, len(list))
	for _, p := range list {
		comments := make([]models.CommentView, 0, len(p.Comments))
		for _, c := range p.Comments {
			comments = append(comments, models.CommentView{ID: c.ID, User: lookup(c.UserID), Text: c.Text, CreatedAt: c.CreatedAt})
		}
		views = append(views, models.PostView{
			ID:        p.ID,
			User:      lookup(p.UserID),
			Text:      p.Text,
			Img:       p.Img,
			Likes:     p.Likes,
			Comments:  comments,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return views, nil
}

func (s *Service) post(ctx context.Context, id string) (*models.Post, error) {
	p, err := s.posts.PostByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("post lookup: %w", err)
	}
	return p, nil
}

func (s *Service) user(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	return u, nil
}
