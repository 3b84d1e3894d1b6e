// Package timeline implements the core feed operations: the follow graph,
// post ingestion, timeline reads, and the external sequence tracker. Every
// operation takes the acting user as an explicit parameter; nothing is read
// from ambient request state.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/ChadIImus/Devoops/internal/feed"
	"github.com/ChadIImus/Devoops/internal/logger"
	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/ChadIImus/Devoops/internal/store"
	"github.com/google/uuid"
)

var logg = logger.New()

// NoLatest is the sentinel returned by Latest when no sequence record has
// ever been written.
const NoLatest int64 = -1

// Service wires the core operations to a store.
type Service struct {
	store store.StoreInterface
}

func New(st store.StoreInterface) *Service {
	return &Service{store: st}
}

// UserPage is the user-timeline response: the author, their visible posts,
// and whether the requesting viewer follows them.
type UserPage struct {
	User      models.User   `json:"user"`
	Posts     []models.Post `json:"posts"`
	Following bool          `json:"following"`
}

// --- Users ---

// Register creates a user account. A duplicate username yields ErrConflict,
// which a replaying sync client treats as already-applied.
func (s *Service) Register(username, email, displayName string) (int64, error) {
	if strings.TrimSpace(username) == "" {
		return 0, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	id, err := s.store.CreateUser(username, email, displayName)
	if err == store.ErrUsernameTaken {
		return 0, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
	}
	if err != nil {
		return 0, err
	}

	logg.Info("timeline", "User registered (username anonymized)")
	return id, nil
}

// UserByUsername resolves a username, with ErrNotFound for unknown names.
func (s *Service) UserByUsername(username string) (*models.User, error) {
	u, err := s.store.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}
	return u, nil
}

// --- Follow graph ---

// Follow makes whoID begin following the user named whomUsername. Both
// users must exist; a missing follower and a missing target both yield
// ErrNotFound. Re-following an already-followed user is a no-op.
func (s *Service) Follow(whoID int64, whomUsername string) error {
	whom, err := s.resolvePair(whoID, whomUsername)
	if err != nil {
		return err
	}
	if err := s.store.AddFollow(whoID, whom.ID); err != nil {
		return err
	}
	logg.Info("timeline", "Follow edge added (user IDs anonymized)")
	return nil
}

// Unfollow removes the edge. The same existence policy as Follow applies;
// removing an edge that does not exist succeeds silently.
func (s *Service) Unfollow(whoID int64, whomUsername string) error {
	whom, err := s.resolvePair(whoID, whomUsername)
	if err != nil {
		return err
	}
	if err := s.store.RemoveFollow(whoID, whom.ID); err != nil {
		return err
	}
	logg.Info("timeline", "Follow edge removed (user IDs anonymized)")
	return nil
}

// IsFollowing reports whether whoID follows whomID.
func (s *Service) IsFollowing(whoID, whomID int64) (bool, error) {
	return s.store.IsFollowing(whoID, whomID)
}

func (s *Service) resolvePair(whoID int64, whomUsername string) (*models.User, error) {
	who, err := s.store.GetUserByID(whoID)
	if err != nil {
		return nil, err
	}
	if who == nil {
		return nil, fmt.Errorf("%w: user id %d", ErrNotFound, whoID)
	}
	return s.UserByUsername(whomUsername)
}

// --- Post ingestion ---

// CreatePost appends a post authored by authorID. The publish date is the
// server clock, never client-supplied.
func (s *Service) CreatePost(authorID int64, text string) (models.Post, error) {
	if strings.TrimSpace(text) == "" {
		return models.Post{}, fmt.Errorf("%w: post text is required", ErrInvalidInput)
	}

	author, err := s.store.GetUserByID(authorID)
	if err != nil {
		return models.Post{}, err
	}
	if author == nil {
		return models.Post{}, fmt.Errorf("%w: user id %d", ErrNotFound, authorID)
	}

	post := models.Post{
		ID:          uuid.NewString(),
		AuthorID:    author.ID,
		Author:      author.Username,
		Text:        text,
		PublishDate: time.Now().UTC(),
		Flagged:     false,
	}

	if err := s.store.AddPost(post); err != nil {
		return models.Post{}, err
	}

	logg.Info("timeline", "Post created (post content anonymized)")
	return post, nil
}

// FlagPost sets the moderation flag on one of authorID's posts.
func (s *Service) FlagPost(authorID int64, postID string, flagged bool) error {
	posts, err := s.store.PostsByAuthor(authorID, feed.PageSize*feed.FetchFactor)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if p.ID == postID {
			return s.store.SetPostFlagged(p, flagged)
		}
	}
	return fmt.Errorf("%w: post %q", ErrNotFound, postID)
}

// --- Timeline reads ---

// PublicTimeline returns the newest unflagged posts site-wide.
func (s *Service) PublicTimeline() ([]models.Post, error) {
	candidates, err := s.store.RecentPosts(feed.PageSize * feed.FetchFactor)
	if err != nil {
		return nil, err
	}
	return feed.Public(candidates, feed.PageSize), nil
}

// UserTimeline returns the named author's visible posts together with
// whether viewerID already follows them. viewerID 0 means anonymous.
func (s *Service) UserTimeline(username string, viewerID int64) (*UserPage, error) {
	user, err := s.UserByUsername(username)
	if err != nil {
		return nil, err
	}

	posts, err := s.store.PostsByAuthor(user.ID, feed.PageSize*feed.FetchFactor)
	if err != nil {
		return nil, err
	}

	following := false
	if viewerID != 0 {
		following, err = s.store.IsFollowing(viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}

	return &UserPage{
		User:      *user,
		Posts:     feed.Public(posts, feed.PageSize),
		Following: following,
	}, nil
}

// PersonalTimeline returns userID's private feed: their own posts (flag
// ignored, authors always see their own content) merged with the unflagged
// posts of everyone they follow. An unknown user falls back to the public
// timeline.
func (s *Service) PersonalTimeline(userID int64) ([]models.Post, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return s.PublicTimeline()
	}

	own, err := s.store.PostsByAuthor(userID, feed.PageSize)
	if err != nil {
		return nil, err
	}

	follows, err := s.store.GetFollows(userID)
	if err != nil {
		return nil, err
	}

	followed, err := s.store.PostsByAuthors(follows, feed.PageSize*feed.FetchFactor)
	if err != nil {
		return nil, err
	}

	return feed.Personal(own, followed, feed.PageSize), nil
}

// --- Sequence tracker ---

// Latest returns the current external command counter value, or NoLatest
// when nothing has been recorded yet.
func (s *Service) Latest() (int64, error) {
	l, err := s.store.GetLatest()
	if err != nil {
		return 0, err
	}
	if l == nil {
		return NoLatest, nil
	}
	return l.Value, nil
}

// RecordLatest appends a new counter record. Values are expected to be
// non-decreasing by convention; the tracker does not reject out-of-order
// inserts.
func (s *Service) RecordLatest(id, value int64) error {
	return s.store.InsertLatest(models.Latest{
		ID:      id,
		Value:   value,
		Created: time.Now().UTC(),
	})
}
