package store

import (
	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/gocql/gocql"
)

// latestBucket is the single partition of the latest table; records are
// clustered by id descending so the first row is the current value.
const latestBucket = 0

// --- Sequence tracker operations ---

// GetLatest returns the most recently inserted sequence record, or
// (nil, nil) when no record has ever been written. Absence is a legitimate
// starting condition for a replaying sync client, not an error.
func (s *Store) GetLatest() (*models.Latest, error) {
	var l models.Latest
	err := s.Session.Query(`
		SELECT id, value, created_at
		FROM latest WHERE bucket = ? LIMIT 1`,
		latestBucket,
	).Scan(&l.ID, &l.Value, &l.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		logg.Error("store", "Failed to query latest sequence record", err)
		return nil, err
	}
	return &l, nil
}

// InsertLatest appends a sequence record. Records are never deleted.
func (s *Store) InsertLatest(latest models.Latest) error {
	if err := s.Session.Query(`
		INSERT INTO latest (bucket, id, value, created_at)
		VALUES (?, ?, ?, ?)`,
		latestBucket, latest.ID, latest.Value, latest.Created,
	).Exec(); err != nil {
		logg.Error("store", "Failed to insert latest sequence record", err)
		return err
	}

	logg.Info("store", "Latest sequence record inserted")
	return nil
}
