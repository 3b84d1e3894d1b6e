package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/ChadIImus/Devoops/internal/models"
)

// MockStore simulates the Cassandra store for testing. Follow edges use
// set semantics and both relation sides are written together, matching the
// batch behavior of the real store. Post reads come back newest-first like
// the clustering order does.
type MockStore struct {
	mu         sync.Mutex
	users      map[int64]models.User
	byUsername map[string]int64
	follows    map[int64]map[int64]struct{} // who -> set of whom
	followers  map[int64]map[int64]struct{} // whom -> set of who
	posts      []models.Post
	latest     []models.Latest
	nextID     int64
	ShouldFail bool // flag to simulate failures
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{
		users:      make(map[int64]models.User),
		byUsername: make(map[string]int64),
		follows:    make(map[int64]map[int64]struct{}),
		followers:  make(map[int64]map[int64]struct{}),
	}
}

func (m *MockStore) Close() {}

// --- Users ---

func (m *MockStore) CreateUser(username, email, displayName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return 0, errors.New("mock: create user failed")
	}
	if _, exists := m.byUsername[username]; exists {
		return 0, ErrUsernameTaken
	}
	m.nextID++
	id := m.nextID
	m.users[id] = models.User{ID: id, Username: username, Email: email, DisplayName: displayName}
	m.byUsername[username] = id
	return id, nil
}

func (m *MockStore) GetUserByID(id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: get user failed")
	}
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MockStore) GetUserByUsername(username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: get user failed")
	}
	id, ok := m.byUsername[username]
	if !ok {
		return nil, nil
	}
	u := m.users[id]
	return &u, nil
}

// --- Follow graph ---

func (m *MockStore) AddFollow(whoID, whomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: follow failed")
	}
	if m.follows[whoID] == nil {
		m.follows[whoID] = make(map[int64]struct{})
	}
	if m.followers[whomID] == nil {
		m.followers[whomID] = make(map[int64]struct{})
	}
	m.follows[whoID][whomID] = struct{}{}
	m.followers[whomID][whoID] = struct{}{}
	return nil
}

func (m *MockStore) RemoveFollow(whoID, whomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: unfollow failed")
	}
	delete(m.follows[whoID], whomID)
	delete(m.followers[whomID], whoID)
	return nil
}

func (m *MockStore) GetFollows(userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: get follows failed")
	}
	return idSet(m.follows[userID]), nil
}

func (m *MockStore) GetFollowers(userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: get followers failed")
	}
	return idSet(m.followers[userID]), nil
}

func (m *MockStore) IsFollowing(whoID, whomID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return false, errors.New("mock: is following failed")
	}
	_, ok := m.follows[whoID][whomID]
	return ok, nil
}

// --- Posts ---

func (m *MockStore) AddPost(post models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: add post failed")
	}
	m.posts = append(m.posts, post)
	return nil
}

func (m *MockStore) PostsByAuthor(authorID int64, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: posts by author failed")
	}
	var res []models.Post
	for _, p := range m.posts {
		if p.AuthorID == authorID {
			res = append(res, p)
		}
	}
	return capNewest(res, limit), nil
}

func (m *MockStore) PostsByAuthors(authorIDs []int64, limitPerAuthor int) ([]models.Post, error) {
	var res []models.Post
	for _, id := range authorIDs {
		posts, err := m.PostsByAuthor(id, limitPerAuthor)
		if err != nil {
			return nil, err
		}
		res = append(res, posts...)
	}
	return res, nil
}

func (m *MockStore) RecentPosts(limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: recent posts failed")
	}
	res := make([]models.Post, len(m.posts))
	copy(res, m.posts)
	return capNewest(res, limit), nil
}

func (m *MockStore) SetPostFlagged(post models.Post, flagged bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: set post flagged failed")
	}
	for i := range m.posts {
		if m.posts[i].ID == post.ID {
			m.posts[i].Flagged = flagged
		}
	}
	return nil
}

// --- Sequence tracker ---

func (m *MockStore) GetLatest() (*models.Latest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: get latest failed")
	}
	if len(m.latest) == 0 {
		return nil, nil
	}
	cur := m.latest[0]
	for _, l := range m.latest[1:] {
		if l.ID > cur.ID {
			cur = l
		}
	}
	return &cur, nil
}

func (m *MockStore) InsertLatest(latest models.Latest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: insert latest failed")
	}
	m.latest = append(m.latest, latest)
	return nil
}

// --- helpers ---

func idSet(set map[int64]struct{}) []int64 {
	var res []int64
	for id := range set {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

func capNewest(posts []models.Post, limit int) []models.Post {
	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].PublishDate.Equal(posts[j].PublishDate) {
			return posts[i].PublishDate.After(posts[j].PublishDate)
		}
		return posts[i].ID > posts[j].ID
	})
	if limit >= 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) CreateUser(username, email, displayName string) (int64, error) {
	return 0, errors.New("mock store create user failed")
}

func (m *MockStoreFail) GetUserByID(id int64) (*models.User, error) {
	return nil, errors.New("mock store get user by id failed")
}

func (m *MockStoreFail) GetUserByUsername(username string) (*models.User, error) {
	return nil, errors.New("mock store get user by username failed")
}

func (m *MockStoreFail) AddFollow(whoID, whomID int64) error {
	return errors.New("mock store add follow failed")
}

func (m *MockStoreFail) RemoveFollow(whoID, whomID int64) error {
	return errors.New("mock store remove follow failed")
}

func (m *MockStoreFail) GetFollows(userID int64) ([]int64, error) {
	return nil, errors.New("mock store get follows failed")
}

func (m *MockStoreFail) GetFollowers(userID int64) ([]int64, error) {
	return nil, errors.New("mock store get followers failed")
}

func (m *MockStoreFail) IsFollowing(whoID, whomID int64) (bool, error) {
	return false, errors.New("mock store is following failed")
}

func (m *MockStoreFail) AddPost(post models.Post) error {
	return errors.New("mock store add post failed")
}

func (m *MockStoreFail) PostsByAuthor(authorID int64, limit int) ([]models.Post, error) {
	return nil, errors.New("mock store posts by author failed")
}

func (m *MockStoreFail) PostsByAuthors(authorIDs []int64, limitPerAuthor int) ([]models.Post, error) {
	return nil, errors.New("mock store posts by authors failed")
}

func (m *MockStoreFail) RecentPosts(limit int) ([]models.Post, error) {
	return nil, errors.New("mock store recent posts failed")
}

func (m *MockStoreFail) SetPostFlagged(post models.Post, flagged bool) error {
	return errors.New("mock store set post flagged failed")
}

func (m *MockStoreFail) GetLatest() (*models.Latest, error) {
	return nil, errors.New("mock store get latest failed")
}

func (m *MockStoreFail) InsertLatest(latest models.Latest) error {
	return errors.New("mock store insert latest failed")
}
