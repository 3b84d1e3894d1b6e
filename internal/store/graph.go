package store

import (
	"github.com/gocql/gocql"
)

// --- Follow graph operations ---
//
// A follow edge is one logical relation stored in two tables: follows
// (partitioned by the follower) and followers_by_followee (partitioned by
// the followee). Every mutation touches both tables in a logged batch, so
// the two sides can never diverge. Re-inserting an existing edge is an
// upsert on the same primary key, which gives set semantics for free.

func (s *Store) AddFollow(whoID, whomID int64) error {
	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`INSERT INTO follows (who_id, whom_id) VALUES (?, ?)`, whoID, whomID)
	batch.Query(`INSERT INTO followers_by_followee (whom_id, who_id) VALUES (?, ?)`, whomID, whoID)

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to create follow edge", err)
		return err
	}

	logg.Info("store", "Follow edge created (user IDs anonymized)")
	return nil
}

func (s *Store) RemoveFollow(whoID, whomID int64) error {
	batch := s.Session.NewBatch(gocql.LoggedBatch)
	batch.Query(`DELETE FROM follows WHERE who_id = ? AND whom_id = ?`, whoID, whomID)
	batch.Query(`DELETE FROM followers_by_followee WHERE whom_id = ? AND who_id = ?`, whomID, whoID)

	if err := s.Session.ExecuteBatch(batch); err != nil {
		logg.Error("store", "Failed to remove follow edge", err)
		return err
	}

	logg.Info("store", "Follow edge removed (user IDs anonymized)")
	return nil
}

// GetFollows returns the ids of the users userID follows.
func (s *Store) GetFollows(userID int64) ([]int64, error) {
	iter := s.Session.Query(
		`SELECT whom_id FROM follows WHERE who_id = ?`,
		userID,
	).Iter()

	var id int64
	var res []int64
	for iter.Scan(&id) {
		res = append(res, id)
	}

	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get follows", err)
		return nil, err
	}

	return res, nil
}

// GetFollowers returns the ids of the users following userID.
func (s *Store) GetFollowers(userID int64) ([]int64, error) {
	iter := s.Session.Query(
		`SELECT who_id FROM followers_by_followee WHERE whom_id = ?`,
		userID,
	).Iter()

	var id int64
	var res []int64
	for iter.Scan(&id) {
		res = append(res, id)
	}

	if err := iter.Close(); err != nil {
		logg.Error("store", "Failed to get followers", err)
		return nil, err
	}

	return res, nil
}

// IsFollowing reports whether whoID follows whomID.
func (s *Store) IsFollowing(whoID, whomID int64) (bool, error) {
	var found int64
	err := s.Session.Query(
		`SELECT whom_id FROM follows WHERE who_id = ? AND whom_id = ?`,
		whoID, whomID,
	).Scan(&found)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		logg.Error("store", "Failed to query follow edge", err)
		return false, err
	}
	return true, nil
}
