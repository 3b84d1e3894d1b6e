package store

import (
	"time"

	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/gocql/gocql"
)

// publicBucket is the single partition key of recent_posts. The public
// timeline only ever reads the newest rows, so one bucket is enough at
// this scale; sharding the bucket is the growth path.
const publicBucket = 0

// --- Post operations ---

// AddPost writes the post to the author's partition and the public recency
// table in one logged batch.
func (s *Store) AddPost(post models.Post) error {
	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`
		INSERT INTO posts_by_author (author_id, published_at, post_id, author, body, flagged)
		VALUES (?, ?, ?, ?, ?, ?)`,
		post.AuthorID, post.PublishDate, post.ID, post.Author, post.Text, post.Flagged,
	)
	batch.Query(`
		INSERT INTO recent_posts (bucket, published_at, post_id, author_id, author, body, flagged)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		publicBucket, post.PublishDate, post.ID, post.AuthorID, post.Author, post.Text, post.Flagged,
	)

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to add post", err)
		return err
	}

	logg.Info("store", "Post added (post content anonymized)")
	return nil
}

// PostsByAuthor returns the author's newest posts, flagged ones included.
func (s *Store) PostsByAuthor(authorID int64, limit int) ([]models.Post, error) {
	iter := s.Session.Query(`
		SELECT post_id, author_id, author, body, published_at, flagged
		FROM posts_by_author WHERE author_id = ? LIMIT ?`,
		authorID, limit,
	).Iter()

	res, err := scanPosts(iter)
	if err != nil {
		logg.Error("store", "Failed to retrieve author posts", err)
		return nil, err
	}
	return res, nil
}

// PostsByAuthors collects the newest posts of each listed author.
func (s *Store) PostsByAuthors(authorIDs []int64, limitPerAuthor int) ([]models.Post, error) {
	var res []models.Post
	for _, id := range authorIDs {
		posts, err := s.PostsByAuthor(id, limitPerAuthor)
		if err != nil {
			return nil, err
		}
		res = append(res, posts...)
	}
	return res, nil
}

// RecentPosts returns the newest posts site-wide, flagged ones included;
// the caller filters and caps.
func (s *Store) RecentPosts(limit int) ([]models.Post, error) {
	iter := s.Session.Query(`
		SELECT post_id, author_id, author, body, published_at, flagged
		FROM recent_posts WHERE bucket = ? LIMIT ?`,
		publicBucket, limit,
	).Iter()

	res, err := scanPosts(iter)
	if err != nil {
		logg.Error("store", "Failed to retrieve recent posts", err)
		return nil, err
	}
	return res, nil
}

// SetPostFlagged updates the moderation flag on both copies of the post.
// The full post is required because the clustering keys (publish date and
// post id) identify the rows.
func (s *Store) SetPostFlagged(post models.Post, flagged bool) error {
	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`
		UPDATE posts_by_author SET flagged = ?
		WHERE author_id = ? AND published_at = ? AND post_id = ?`,
		flagged, post.AuthorID, post.PublishDate, post.ID,
	)
	batch.Query(`
		UPDATE recent_posts SET flagged = ?
		WHERE bucket = ? AND published_at = ? AND post_id = ?`,
		flagged, publicBucket, post.PublishDate, post.ID,
	)

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to update post flag", err)
		return err
	}

	logg.Info("store", "Post flag updated (post ID anonymized)")
	return nil
}

func scanPosts(iter *gocql.Iter) ([]models.Post, error) {
	var res []models.Post
	var pid, author, body string
	var aid int64
	var published time.Time
	var flagged bool

	for iter.Scan(&pid, &aid, &author, &body, &published, &flagged) {
		res = append(res, models.Post{
			ID:          pid,
			AuthorID:    aid,
			Author:      author,
			Text:        body,
			PublishDate: published,
			Flagged:     flagged,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, err
	}
	return res, nil
}
