package store

import (
	"github.com/ChadIImus/Devoops/internal/models"
	"github.com/gocql/gocql"
)

// --- User operations ---

// GetUserByUsername returns the user registered under username.
// If no such user exists, it returns (nil, nil) without an error.
func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	err := s.Session.Query(
		`SELECT user_id, username, display_name, email FROM users_by_username WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		logg.Error("store", "Failed to query user by username", err)
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns the user with the given id, or (nil, nil) if absent.
func (s *Store) GetUserByID(id int64) (*models.User, error) {
	var u models.User
	err := s.Session.Query(
		`SELECT user_id, username, display_name, email FROM users WHERE user_id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.Email)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, nil
		}
		logg.Error("store", "Failed to query user by id", err)
		return nil, err
	}
	return &u, nil
}

// CreateUser allocates a numeric id and registers the user. Username
// uniqueness is enforced with a CAS insert into users_by_username; a lost
// race or an existing registration yields ErrUsernameTaken.
func (s *Store) CreateUser(username, email, displayName string) (int64, error) {
	id, err := s.nextUserID()
	if err != nil {
		return 0, err
	}

	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		INSERT INTO users_by_username (username, user_id, display_name, email)
		VALUES (?, ?, ?, ?) IF NOT EXISTS`,
		username, id, displayName, email,
	).MapScanCAS(result)
	if err != nil {
		logg.Error("store", "Failed to create username entry", err)
		return 0, err
	}

	if !applied {
		return 0, ErrUsernameTaken
	}

	err = s.Session.Query(`
		INSERT INTO users (user_id, username, display_name, email)
		VALUES (?, ?, ?, ?)`,
		id, username, displayName, email,
	).Exec()
	if err != nil {
		logg.Error("store", "Failed to create user in main table", err)
		return 0, err
	}

	logg.Info("store", "User created successfully (username anonymized)")
	return id, nil
}

// nextUserID bumps the user-id allocator with a CAS loop.
func (s *Store) nextUserID() (int64, error) {
	for {
		var cur int64
		err := s.Session.Query(
			`SELECT value FROM id_seq WHERE name = ?`, "user_id",
		).Scan(&cur)
		if err == gocql.ErrNotFound {
			applied, casErr := s.Session.Query(
				`INSERT INTO id_seq (name, value) VALUES (?, ?) IF NOT EXISTS`,
				"user_id", int64(1),
			).MapScanCAS(make(map[string]interface{}))
			if casErr != nil {
				logg.Error("store", "Failed to seed user id allocator", casErr)
				return 0, casErr
			}
			if applied {
				return 1, nil
			}
			continue
		}
		if err != nil {
			logg.Error("store", "Failed to read user id allocator", err)
			return 0, err
		}

		next := cur + 1
		applied, err := s.Session.Query(
			`UPDATE id_seq SET value = ? WHERE name = ? IF value = ?`,
			next, "user_id", cur,
		).MapScanCAS(make(map[string]interface{}))
		if err != nil {
			logg.Error("store", "Failed to bump user id allocator", err)
			return 0, err
		}
		if applied {
			return next, nil
		}
		// lost the race, retry with the fresh value
	}
}
