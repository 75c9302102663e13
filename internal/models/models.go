package models

import "time"

// AccessLevel represents the per-user access level on a private category
type AccessLevel int

const (
	// AccessRead allows viewing a private category and its topics
	AccessRead AccessLevel = 0
	// AccessWrite additionally allows creating topics and replies
	AccessWrite AccessLevel = 1
)

// String returns a human readable access level name
func (l AccessLevel) String() string {
	switch l {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Valid reports whether the level is one of the known values
func (l AccessLevel) Valid() bool {
	return l == AccessRead || l == AccessWrite
}

// User represents a registered forum user
type User struct {
	CreatedAt    time.Time `json:"created_at"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	ID           int64     `json:"id"`
	IsAdmin      bool      `json:"is_admin"`
}

// Identity is the authenticated caller extracted from a session token.
// It is the only identity value that crosses the authentication boundary;
// handlers never see raw tokens or full user rows during authorization.
type Identity struct {
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
	IsAdmin  bool   `json:"is_admin"`
}

// Category represents a forum category
type Category struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	CreatorID int64     `json:"creator_id"`
	IsLocked  bool      `json:"is_locked"`
	IsPrivate bool      `json:"is_private"`
}

// Topic represents a discussion topic inside a category
type Topic struct {
	CreatedAt   time.Time `json:"created_at"`
	BestReplyID *int64    `json:"best_reply_id,omitempty"`
	Name        string    `json:"name"`
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	CreatorID   int64     `json:"creator_id"`
	IsLocked    bool      `json:"is_locked"`
}

// Reply represents a reply to a topic
type Reply struct {
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
	ID        int64     `json:"id"`
	TopicID   int64     `json:"topic_id"`
	AuthorID  int64     `json:"author_id"`
}

// Vote represents a user's vote on a reply.
// Upvote true is an upvote, false is a downvote; absence of a row means no vote.
type Vote struct {
	UserID  int64 `json:"user_id"`
	ReplyID int64 `json:"reply_id"`
	Upvote  bool  `json:"vote"`
}

// Message represents a direct message between two users
type Message struct {
	CreatedAt  time.Time `json:"created_at"`
	Text       string    `json:"text"`
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
}

// AccessGrant represents a per-user access level on a private category.
// At most one grant exists per (user, category) pair.
type AccessGrant struct {
	UserID     int64       `json:"user_id"`
	CategoryID int64       `json:"category_id"`
	AccessType AccessLevel `json:"access_type"`
}
