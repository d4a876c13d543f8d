package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skillnest/internal/apperr"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// ProfileFunc observes a user record after its profile or skills change.
type ProfileFunc func(ctx context.Context, u *User)

type Service struct {
	repo      Store
	jwtSecret string
	tokenTTL  time.Duration
	onProfile []ProfileFunc
}

type MyJWTClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewService(repo Store, secret string) *Service {
	return &Service{
		repo:      repo,
		jwtSecret: secret,
		tokenTTL:  24 * time.Hour,
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.Validation("invalid email")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(req.Name),
		Email:    req.Email,
		Password: string(hashedPwd),
		Skills:   []string{},
	}
	return s.repo.CreateUser(ctx, u)
}

// OnProfileChange registers fn to run after every successful profile or skills update.
func (s *Service) OnProfileChange(fn ProfileFunc) {
	s.onProfile = append(s.onProfile, fn)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, MyJWTClaims{
		ID:    u.ID,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "skillnest",
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: ss,
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
	}, nil
}

func (s *Service) ValidateToken(tokenString string) (string, string, error) {
	claims := &MyJWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", errors.New("invalid token")
	}

	return claims.ID, claims.Email, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) SearchUsers(ctx context.Context, query string) ([]User, error) {
	return s.repo.SearchUsers(ctx, query)
}

// UpdateProfile replaces id's profile. Users edit only themselves.
func (s *Service) UpdateProfile(ctx context.Context, actorID, id string, req *UpdateProfileRequest) (*User, error) {
	if actorID != id {
		return nil, apperr.Forbidden("you can only edit your own profile")
	}
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		u.Name = name
	}
	u.Profile = req.Profile
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.profileChanged(ctx, u)
	return u, nil
}

func (s *Service) GetSkills(ctx context.Context, id string) ([]string, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Skills == nil {
		return []string{}, nil
	}
	return u.Skills, nil
}

// SetSkills replaces the skill list, trimming blanks and duplicates.
func (s *Service) SetSkills(ctx context.Context, actorID, id string, skills []string) ([]string, error) {
	if actorID != id {
		return nil, apperr.Forbidden("you can only edit your own skills")
	}
	clean := []string{}
	seen := map[string]bool{}
	for _, sk := range skills {
		sk = strings.TrimSpace(sk)
		key := strings.ToLower(sk)
		if sk == "" || seen[key] {
			continue
		}
		seen[key] = true
		clean = append(clean, sk)
	}
	if err := s.repo.SetSkills(ctx, id, clean); err != nil {
		return nil, err
	}
	if u, err := s.repo.GetUserByID(ctx, id); err == nil {
		s.profileChanged(ctx, u)
	}
	return clean, nil
}

func (s *Service) profileChanged(ctx context.Context, u *User) {
	for _, fn := range s.onProfile {
		fn(ctx, u)
	}
}

// FollowCounts fails with NotFound for unknown users rather than reporting zeros.
func (s *Service) FollowCounts(ctx context.Context, id string) (*FollowCounts, error) {
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.FollowCounts(ctx, id)
}

// Follow records followerID -> followedID. Both users must exist.
func (s *Service) Follow(ctx context.Context, followerID, followedID string) error {
	if followerID == "" || followedID == "" {
		return apperr.Validation("both users are required")
	}
	if followerID == followedID {
		return apperr.Validation("cannot follow yourself")
	}
	for _, id := range []string{followerID, followedID} {
		if _, err := s.repo.GetUserByID(ctx, id); err != nil {
			return err
		}
	}
	return s.repo.AddFollow(ctx, followerID, followedID)
}

// Unfollow is a no-op when the edge does not exist.
func (s *Service) Unfollow(ctx context.Context, followerID, followedID string) error {
	if followerID == "" || followedID == "" {
		return apperr.Validation("both users are required")
	}
	return s.repo.RemoveFollow(ctx, followerID, followedID)
}

func (s *Service) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.repo.Followers(ctx, userID)
}

func (s *Service) Following(ctx context.Context, userID string) ([]string, error) {
	return s.repo.Following(ctx, userID)
}
