package models

import "time"

// Post is the votable body shared by questions and answers. VoteCount is the
// incrementally maintained tally; Score is recomputed from the votes table
// after every vote mutation and is the trusted value.
type Post struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	UserID    int       `json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Body      string    `gorm:"not null" json:"body"`
	VoteCount int       `gorm:"default:0" json:"vote_count"`
	Score     int       `gorm:"default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Question struct {
	ID               int       `gorm:"primaryKey" json:"id"`
	PostID           int       `gorm:"uniqueIndex" json:"post_id"`
	Post             Post      `gorm:"foreignKey:PostID" json:"post"`
	Title            string    `gorm:"not null;index" json:"title"`
	Slug             string    `gorm:"unique;not null" json:"slug"`
	IsAnswered       bool      `gorm:"default:false" json:"is_answered"`
	IsClosed         bool      `gorm:"default:false" json:"is_closed"`
	ViewCount        int       `gorm:"default:0" json:"view_count"`
	AnswerCount      int       `gorm:"default:0" json:"answer_count"`
	AcceptedAnswerID *int      `json:"accepted_answer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Answer struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	PostID     int       `gorm:"uniqueIndex" json:"post_id"`
	Post       Post      `gorm:"foreignKey:PostID" json:"post"`
	QuestionID int       `gorm:"index" json:"question_id"`
	Question   Question  `gorm:"foreignKey:QuestionID" json:"-"`
	IsAccepted bool      `gorm:"default:false" json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateQuestionRequest struct {
	Title string `json:"title" binding:"required"`
	Body  string `json:"body" binding:"required"`
}

type CreateAnswerRequest struct {
	Body string `json:"body" binding:"required"`
}

type AcceptAnswerRequest struct {
	AnswerID int `json:"answer_id" binding:"required"`
}
