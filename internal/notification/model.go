package notification

import "time"

type Type string

const (
	TypeLike    Type = "LIKE"
	TypeComment Type = "COMMENT"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SenderID  string    `json:"senderId"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	PostID    string    `json:"postId,omitempty"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"createdAt"`
}

// Page is one slice of a user's ledger, newest first.
type Page struct {
	Items         []*Notification `json:"items"`
	UnseenCount   int64           `json:"unseenCount"`
	TotalPages    int             `json:"totalPages"`
	TotalElements int64           `json:"totalElements"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)
