package post

import "time"

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

type Post struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Visibility     Visibility `json:"visibility"`
	AddToPortfolio bool       `json:"addToPortfolio"`
	LikedBy        []string   `json:"likedBy"`
	CommentIDs     []string   `json:"commentIds"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type Comment struct {
	ID        string     `json:"id"`
	PostID    string     `json:"postId"`
	UserID    string     `json:"userId"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type CreatePostRequest struct {
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	Visibility     Visibility `json:"visibility"`
	AddToPortfolio bool       `json:"addToPortfolio"`
}

// UpdatePostRequest leaves a field unchanged when it is nil.
type UpdatePostRequest struct {
	Title          *string     `json:"title"`
	Content        *string     `json:"content"`
	Visibility     *Visibility `json:"visibility"`
	AddToPortfolio *bool       `json:"addToPortfolio"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
