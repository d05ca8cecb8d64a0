package model

import "time"

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

type Group struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	MemberCount int       `json:"member_count"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type GroupPost struct {
	ID         int            `json:"id"`
	GroupID    int            `json:"group_id"`
	UserID     int            `json:"user_id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Status     string         `json:"status"`
	Reactions  map[string]int `json:"reactions,omitempty"`
	MyReaction string         `json:"my_reaction,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Reaction struct {
	UserID       int    `json:"user_id"`
	PostID       int    `json:"post_id"`
	ReactionType string `json:"reaction_type"`
}

type Report struct {
	TargetType string `json:"target_type" binding:"required,oneof=post comment"`
	TargetID   int    `json:"target_id" binding:"required,gt=0"`
	Reason     string `json:"reason" binding:"required,max=500"`
}

type PostInput struct {
	Title   string `json:"title" binding:"required,max=200"`
	Content string `json:"content" binding:"required,max=10000"`
}

type CommentInput struct {
	Content string `json:"content" binding:"required,max=2000"`
}

const (
	ReactionLike      = "like"
	ReactionLove      = "love"
	ReactionCelebrate = "celebrate"
	ReactionSupport   = "support"
)

type ReactionInput struct {
	ReactionType string `json:"reaction_type" binding:"required,oneof=like love celebrate support"`
}
