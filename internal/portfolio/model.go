// Package portfolio keeps the metadata of a member's showcases and documents.
// File bytes live elsewhere; only descriptive fields are stored here.
package portfolio

import "time"

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

type Showcase struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Skills      []string   `json:"skills"`
	Visibility  Visibility `json:"visibility"`
	ProjectURL  string     `json:"projectUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type ShowcaseRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Skills      []string   `json:"skills"`
	Visibility  Visibility `json:"visibility"`
	ProjectURL  string     `json:"projectUrl"`
}

type Document struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	Folder      string     `json:"folder"`
	Tags        []string   `json:"tags"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type DocumentRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Visibility  Visibility `json:"visibility"`
	Folder      string     `json:"folder"`
	Tags        []string   `json:"tags"`
}
