package db

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Match strength tiers. A pairing with at least SuperMatchThreshold
// shows in common is a superMatch, otherwise a plain match.
const (
	MatchLevelMatch      = "match"
	MatchLevelSuperMatch = "superMatch"
)

// MatchWith / MatchLocation preference values.
const (
	MatchWithMale     = "male"
	MatchWithFemale   = "female"
	MatchWithEveryone = "everyone"

	MatchLocationLocal     = "local"
	MatchLocationWorldwide = "worldwide"
)

// User table. Besides account fields it carries the compatibility
// profile used by the match resolver: gender, match_with, location and
// match_location.
type User struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Username      string `gorm:"uniqueIndex;size:64;not null"`
	Email         string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash  string `gorm:"size:255;not null"`
	Active        bool   `gorm:"default:true"`
	DisplayName   string `gorm:"size:64"`
	Age           uint32
	ProfilePic    string    `gorm:"size:255"`
	Gender        string    `gorm:"size:16"`
	MatchWith     string    `gorm:"size:16;default:everyone"`
	Location      string    `gorm:"size:64"`
	MatchLocation string    `gorm:"size:16;default:worldwide"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// ProfileComplete reports whether the user can take part in match
// resolution. New users without a display name or gender are skipped,
// not rejected.
func (u *User) ProfileComplete() bool {
	return u.DisplayName != "" && u.Gender != ""
}

// Favorite is one element of a user's favorite set.
//
// Composite PK: (UserID, ShowID) — a show appears at most once per user.
type Favorite struct {
	UserID    uint64    `gorm:"primaryKey"`
	ShowID    string    `gorm:"primaryKey;size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// PreferenceEntry is one row of the reverse index from show to
// favoriting users.
//
// Composite PK: (ShowID, UserID)
//   - A user appears at most once per show.
//   - ConfirmedAt is the last time the pairing was confirmed, not the
//     first time the show was favorited; upserts are last-write-wins.
//   - Rows are never deleted, even when a user drops the favorite.
type PreferenceEntry struct {
	ShowID      string    `gorm:"primaryKey;size:64"`
	UserID      uint64    `gorm:"primaryKey"`
	ConfirmedAt time.Time `gorm:"not null"`
}

// ShowIDList is stored as a JSON string column so the full common-show
// set travels with each match record.
type ShowIDList []string

// Value implements driver.Valuer.
func (l ShowIDList) Value() (driver.Value, error) {
	if l == nil {
		l = ShowIDList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *ShowIDList) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for ShowIDList")
	}
}

// MatchRecord is one user's view of a discovered pairing.
//
// Composite PK: (OwnerID, OtherID) — one record per pair and direction.
// Every pairing produces two mirrored records, written in a single
// transaction so the lists never go asymmetric.
type MatchRecord struct {
	OwnerID       uint64 `gorm:"primaryKey;index:idx_owner_matched,priority:1"`
	OtherID       uint64 `gorm:"primaryKey"`
	DisplayName   string `gorm:"size:64"`
	ProfilePic    string `gorm:"size:255"`
	Age           uint32
	Location      string     `gorm:"size:64"`
	Gender        string     `gorm:"size:16"`
	MatchLevel    string     `gorm:"size:16;not null"`
	CommonShowIDs ShowIDList `gorm:"type:text"`
	MatchedAt     time.Time  `gorm:"not null;index:idx_owner_matched,priority:2,sort:desc"`
	ChattingWith  bool       `gorm:"not null;default:false"`
}

// Block records that UserID never wants to see BlockedID again.
//
// Composite PK: (UserID, BlockedID). The resolver enforces blocks
// symmetrically: either direction excludes the pair.
type Block struct {
	UserID    uint64    `gorm:"primaryKey"`
	BlockedID uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Conversation is the minimal record backing the chat subsystem
// contracts: created when a matched pair starts chatting, deleted on
// unmatch/block. UserAID < UserBID always (normalized pair).
type Conversation struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserAID   uint64    `gorm:"uniqueIndex:idx_conversation_pair,priority:1;not null"`
	UserBID   uint64    `gorm:"uniqueIndex:idx_conversation_pair,priority:2;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
