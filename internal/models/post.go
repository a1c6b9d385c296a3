package models

import "time"

// Comment is one entry in a post's ordered comment list.
type Comment struct {
	ID        string    `json:"id"         bson:"id"`
	UserID    string    `json:"user_id"    bson:"user_id"`
	Text      string    `json:"text"       bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Post is a document in the posts collection.
type Post struct {
	ID        string    `json:"id"             bson:"_id"`
	UserID    string    `json:"user_id"        bson:"user_id"`
	Text      string    `json:"text,omitempty" bson:"text,omitempty"`
	Img       string    `json:"img,omitempty"  bson:"img,omitempty"`
	Likes     IDSet     `json:"likes"          bson:"likes"`
	Comments  []Comment `json:"comments"       bson:"comments"`
	CreatedAt time.Time `json:"created_at"     bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at"     bson:"updated_at"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	ID        string    `json:"id"`
	User      *User     `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PostView is a post as returned by the feed endpoints: owner and comment
// authors resolved to sanitized users.
type PostView struct {
	ID        string        `json:"id"`
	User      *User         `json:"user"`
	Text      string        `json:"text,omitempty"`
	Img       string        `json:"img,omitempty"`
	Likes     IDSet         `json:"likes"`
	Comments  []CommentView `json:"comments"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CreatePostRequest is the JSON body for POST /api/posts/create.
// Img is a base64 data URI.
type CreatePostRequest struct {
	Text string `json:"text"`
	Img  string `json:"img"`
}

// CommentRequest is the JSON body for POST /api/posts/comment/{id}.
type CommentRequest struct {
	Text string `json:"text"`
}
