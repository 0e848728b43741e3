package entities

import "time"

type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"column:section_name;size:100;not null" json:"section_name"`
	Description string    `gorm:"column:section_description;size:500" json:"section_description"`
	DateCreated time.Time `gorm:"not null" json:"date_created"`
	Ebooks      []Ebook   `gorm:"foreignKey:SectionID" json:"-"`
}

type Ebook struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"column:ebook_name;size:100;not null" json:"ebook_name"`
	Author    string `gorm:"size:100;not null" json:"author"`
	Content   string `gorm:"type:text" json:"content"`
	SectionID uint   `gorm:"index;not null" json:"section_id"`

	// Legacy columns kept for schema compatibility; loans live on Request.
	DateIssued   *time.Time `json:"date_issued,omitempty"`
	DateReturned *time.Time `json:"date_returned,omitempty"`
}
