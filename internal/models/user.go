package models

import "time"

// User is an account document in the users collection.
type User struct {
	ID         string    `json:"id"          bson:"_id"`
	Username   string    `json:"username"    bson:"username"`
	Email      string    `json:"email"       bson:"email"`
	Password   string    `json:"-"           bson:"password"` // never serialize
	FullName   string    `json:"full_name"   bson:"full_name"`
	Bio        string    `json:"bio"         bson:"bio"`
	Link       string    `json:"link"        bson:"link"`
	ProfileImg string    `json:"profile_img" bson:"profile_img"`
	CoverImg   string    `json:"cover_img"   bson:"cover_img"`
	Followers  IDSet     `json:"followers"   bson:"followers"`
	Following  IDSet     `json:"following"   bson:"following"`
	LikedPosts IDSet     `json:"liked_posts" bson:"liked_posts"`
	CreatedAt  time.Time `json:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"  bson:"updated_at"`
}

// NewUser returns a user with empty, non-nil edge sets so the store can
// apply set updates to them.
func NewUser(id, username, email, hashedPassword, fullName string, now time.Time) *User {
	return &User{
		ID:         id,
		Username:   username,
		Email:      email,
		Password:   hashedPassword,
		FullName:   fullName,
		Followers:  IDSet{},
		Following:  IDSet{},
		LikedPosts: IDSet{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Sanitized returns a copy without the password digest.
func (u User) Sanitized() User {
	u.Password = ""
	return u
}

// SignupRequest is the JSON body for POST /api/auth/signup.
type SignupRequest struct {
	FullName string `json:"full_name"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the JSON body for POST /api/users/update.
// Empty fields leave the stored value unchanged.
type UpdateProfileRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	Bio             string `json:"bio"`
	Link            string `json:"link"`
	ProfileImg      string `json:"profile_img"`
	CoverImg        string `json:"cover_img"`
}
