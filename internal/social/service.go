package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/logging"
	"github.com/ayush/socialnet/backend/internal/metrics"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
	"github.com/ayush/socialnet/backend/internal/validate"
)

const (
	suggestionSample = 10
	suggestionLimit  = 4
)

var (
	ErrSelfFollow              = errors.New("you cannot follow yourself")
	ErrUserNotFound            = errors.New("user not found")
	ErrPasswordPairRequired    = errors.New("please enter both current and new password")
	ErrCurrentPasswordMismatch = errors.New("current password does not match")
)

// UserStore defines the user persistence the social graph needs.
type UserStore interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	Follow(ctx context.Context, actorID, targetID string) (bool, error)
	Unfollow(ctx context.Context, actorID, targetID string) (bool, error)
	SampleUsers(ctx context.Context, excludeID string, size int) ([]models.User, error)
}

// MediaStore defines the hosted image store.
type MediaStore interface {
	Upload(ctx context.Context, dataURI string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Notifier records follow events for the followed user.
type Notifier interface {
	Emit(ctx context.Context, from, to string, kind models.NotificationType) error
}

// FollowResult is the edge state after a toggle.
type FollowResult struct {
	Following bool `json:"following"`
}

// Service applies follow edges and profile changes.
type Service struct {
	users      UserStore
	media      MediaStore
	notifier   Notifier
	bcryptCost int
	now        func() time.Time
}

func NewService(users UserStore, media MediaStore, notifier Notifier, bcryptCost int) *Service {
	return &Service{
		users:      users,
		media:      media,
		notifier:   notifier,
		bcryptCost: bcryptCost,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ToggleFollow follows targetID if actorID is not in its follower set and
// unfollows otherwise. Only a follow that actually added the edge emits a
// notification.
func (s *Service) ToggleFollow(ctx context.Context, actorID, targetID string) (FollowResult, error) {
	if actorID == targetID {
		return FollowResult{}, ErrSelfFollow
	}
	target, err := s.user(ctx, targetID)
	if err != nil {
		return FollowResult{}, err
	}
	if _, err := s.user(ctx, actorID); err != nil {
		return FollowResult{}, err
	}

	if target.Followers.Has(actorID) {
		changed, err := s.users.Unfollow(ctx, actorID, targetID)
		if err != nil {
			return FollowResult{}, fmt.Errorf("unfollow: %w", err)
		}
		if changed {
			metrics.FollowToggles.WithLabelValues("unfollow").Inc()
		}
		return FollowResult{Following: false}, nil
	}

	changed, err := s.users.Follow(ctx, actorID, targetID)
	if err != nil {
		return FollowResult{}, fmt.Errorf("follow: %w", err)
	}
	if !changed {
		// A concurrent request added the edge between our read and write.
		logging.FromContext(ctx).Debug("follow already applied", "actor", actorID, "target", targetID)
		return FollowResult{Following: true}, nil
	}
	metrics.FollowToggles.WithLabelValues("follow").Inc()
	if err := s.notifier.Emit(ctx, actorID, targetID, models.NotificationFollow); err != nil {
		return FollowResult{}, err
	}
	return FollowResult{Following: true}, nil
}

// Suggested returns up to four random users the caller does not follow.
func (s *Service) Suggested(ctx context.Context, userID string) ([]models.User, error) {
	me, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	sample, err := s.users.SampleUsers(ctx, userID, suggestionSample)
	if err != nil {
		return nil, fmt.Errorf("sample users: %w", err)
	}

	out := make([]models.User, 0, suggestionLimit)
	for _, u := range sample {
		if u.ID == userID || me.Following.Has(u.ID) {
			continue
		}
		out = append(out, u.Sanitized())
		if len(out) == suggestionLimit {
			break
		}
	}
	return out, nil
}

// Profile returns the sanitized record for username.
func (s *Service) Profile(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.UserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	sanitized := u.Sanitized()
	return &sanitized, nil
}

// UpdateProfile overwrites every non-empty field of req. An empty string
// means unchanged, so fields cannot be cleared through this call.
func (s *Service) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}

	if (req.CurrentPassword == "") != (req.NewPassword == "") {
		return nil, ErrPasswordPairRequired
	}
	if req.CurrentPassword != "" {
		if !auth.CheckPassword(req.CurrentPassword, u.Password) {
			return nil, ErrCurrentPasswordMismatch
		}
		if err := validate.Password(req.NewPassword); err != nil {
			return nil, err
		}
		hashed, err := auth.HashPassword(req.NewPassword, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}

	if req.Email != "" {
		if err := validate.Email(req.Email); err != nil {
			return nil, err
		}
	}
	if err := s.checkAvailable(ctx, u, req); err != nil {
		return nil, err
	}

	var uploaded []string
	if req.ProfileImg != "" {
		if u.ProfileImg, err = s.replaceImage(ctx, u.ProfileImg, req.ProfileImg); err != nil {
			return nil, err
		}
		uploaded = append(uploaded, u.ProfileImg)
	}
	if req.CoverImg != "" {
		if u.CoverImg, err = s.replaceImage(ctx, u.CoverImg, req.CoverImg); err != nil {
			s.discard(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, u.CoverImg)
	}

	u.FullName = orKeep(req.FullName, u.FullName)
	u.Email = orKeep(req.Email, u.Email)
	u.Username = orKeep(req.Username, u.Username)
	u.Bio = orKeep(req.Bio, u.Bio)
	u.Link = orKeep(req.Link, u.Link)
	u.UpdatedAt = s.now()

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		s.discard(ctx, uploaded)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	sanitized := u.Sanitized()
	return &sanitized, nil
}

// checkAvailable rejects a username or email already held by another user,
// before any media is touched.
func (s *Service) checkAvailable(ctx context.Context, u *models.User, req models.UpdateProfileRequest) error {
	if req.Username != "" && req.Username != u.Username {
		if err := s.taken(ctx, s.users.UserByUsername, req.Username, u.ID, store.ErrUsernameTaken); err != nil {
			return err
		}
	}
	if req.Email != "" && req.Email != u.Email {
		if err := s.taken(ctx, s.users.UserByEmail, req.Email, u.ID, store.ErrEmailTaken); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) taken(ctx context.Context, find func(context.Context, string) (*models.User, error), key, selfID string, conflict error) error {
	other, err := find(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("uniqueness lookup: %w", err)
	case other.ID != selfID:
		return conflict
	}
	return nil
}

// discard removes objects uploaded by an update that did not persist.
func (s *Service) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.media.Delete(ctx, ref); err != nil {
			metrics.MediaOperations.WithLabelValues("delete", "error").Inc()
			logging.FromContext(ctx).Warn("orphaned upload", "ref", ref, "error", err)
			continue
		}
		metrics.MediaOperations.WithLabelValues("delete", "ok").Inc()
	}
}

// replaceImage deletes the old object before uploading the new one.
func (s *Service) replaceImage(ctx context.Context, oldRef, dataURI string) (string, error) {
	if oldRef != "" {
		if err := s.media.Delete(ctx, oldRef); err != nil {
			metrics.MediaOperations.WithLabelValues("delete", "error").Inc()
			return "", fmt.Errorf("delete old image: %w", err)
		}
		metrics.MediaOperations.WithLabelValues("delete", "ok").Inc()
	}
	ref, err := s.media.Upload(ctx, dataURI)
	if err != nil {
		metrics.MediaOperations.WithLabelValues("upload", "error").Inc()
		if errors.Is(err, store.ErrInvalidImage) {
			return "", err
		}
		return "", fmt.Errorf("upload image: %w", err)
	}
	metrics.MediaOperations.WithLabelValues("upload", "ok").Inc()
	return ref, nil
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

func orKeep(v, current string) string {
	if v != "" {
		return v
	}
	return current
}
