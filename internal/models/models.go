package models

import "time"

// User is an account as the feed needs it: identity plus the profile
// fields timelines render. Follow relations live in the store, keyed by id.
type User struct {
	ID          int64  `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Post is a single timeline entry. Author is the denormalized username of
// AuthorID so timeline responses do not need a per-post user lookup.
// PublishDate is assigned by the server at creation and never changes.
type Post struct {
	ID          string    `json:"post_id"`
	AuthorID    int64     `json:"author_id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	PublishDate time.Time `json:"publish_date"`
	Flagged     bool      `json:"flagged"`
}

// Latest is one record of the external command counter. The record with the
// highest ID is the current value; records are appended, never deleted.
type Latest struct {
	ID      int64     `json:"id"`
	Value   int64     `json:"value"`
	Created time.Time `json:"creation_time"`
}

// Sync command actions accepted by the replay worker.
const (
	ActionRegister = "register"
	ActionFollow   = "follow"
	ActionUnfollow = "unfollow"
	ActionPost     = "post"
)

// SyncCommand is one externally-applied command read from the sync topic.
// Seq is the command's position in the external stream; the worker skips
// any command whose Seq is at or below the recorded latest value.
type SyncCommand struct {
	Seq    int64  `json:"seq"`
	Action string `json:"action"`

	// register
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`

	// follow / unfollow: Who begins (or stops) following Whom, both usernames.
	Who  string `json:"who,omitempty"`
	Whom string `json:"whom,omitempty"`

	// post
	Author string `json:"author,omitempty"`
	Text   string `json:"text,omitempty"`
}
