package user

import "time"

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	Profile
	Skills []string `json:"skills"`
}

// Profile is the part of a user record its owner edits freely.
type Profile struct {
	Headline     string `json:"headline"`
	Bio          string `json:"bio"`
	Tagline      string `json:"tagline"`
	Gender       string `json:"gender"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	Role         string `json:"role"`
	Institution  string `json:"institution"`
	Language     string `json:"language"`
	Internship   string `json:"internship"`
	FieldOfStudy string `json:"fieldOfStudy"`
}

// UpdateProfileRequest replaces the whole profile. An empty name keeps the current one.
type UpdateProfileRequest struct {
	Name string `json:"name"`
	Profile
}

type SkillsRequest struct {
	Skills []string `json:"skills"`
}

type FollowCounts struct {
	Followers int64 `json:"followersCount"`
	Following int64 `json:"followingCount"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
}
