package models

import "time"

// Review is a user's scored review of a title. The composite unique index
// on (author_id, title_id) is the authority for the one-review-per-author
// rule; application-level checks only exist to produce friendlier errors.
type Review struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Text           string    `json:"text" validate:"required"`
	AuthorID       string    `json:"-" gorm:"type:varchar(36);uniqueIndex:idx_review_author_title"`
	Author         *User     `json:"-"`
	TitleID        uint      `json:"-" gorm:"uniqueIndex:idx_review_author_title"`
	Score          int       `json:"score" validate:"required,gte=1,lte=10"`
	PubDate        time.Time `json:"pub_date" gorm:"autoCreateTime"`
	AuthorUsername string    `json:"author" gorm:"-"`
}

// Comment is a remark attached to a review.
type Comment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Text           string    `json:"text" validate:"required"`
	AuthorID       string    `json:"-" gorm:"type:varchar(36)"`
	Author         *User     `json:"-"`
	ReviewID       uint      `json:"-"`
	PubDate        time.Time `json:"pub_date" gorm:"autoCreateTime"`
	AuthorUsername string    `json:"author" gorm:"-"`
}
