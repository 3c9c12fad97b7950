package models

// Category is a top-level classification for titles (e.g. "Movies",
// "Books"). Shared reference data: deleting a category must not delete the
// titles that point at it.
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(256)" validate:"required,max=256"`
	Slug string `json:"slug" gorm:"uniqueIndex;type:varchar(50)" validate:"required,max=50,slug"`
}

// Genre is a tag applied to titles, many-to-many.
type Genre struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(256)" validate:"required,max=256"`
	Slug string `json:"slug" gorm:"uniqueIndex;type:varchar(50)" validate:"required,max=50,slug"`
}

// Title is a reviewable work. Rating is derived from reviews on every read
// and never persisted; a nil Rating means the title has no reviews yet,
// which is distinct from a rating of zero.
type Title struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(256)" validate:"required,max=256"`
	Year        int       `json:"year" validate:"required"`
	Description string    `json:"description"`
	CategoryID  *uint     `json:"-"`
	Category    *Category `json:"category"`
	Genres      []Genre   `json:"genre" gorm:"many2many:title_genres"`
	Rating      *float64  `json:"rating" gorm:"-"`
}
