package entities

import "time"

type RequestStatus string

const (
	RequestStatusRequested RequestStatus = "requested"
	RequestStatusGranted   RequestStatus = "granted"
	RequestStatusRevoked   RequestStatus = "revoked"
	RequestStatusReturned  RequestStatus = "returned"
)

// IsTerminal reports whether no further transition is allowed.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusRevoked || s == RequestStatusReturned
}

// Request is a loan record for one user and one ebook.
type Request struct {
	ID            uint          `gorm:"primaryKey" json:"request_id"`
	UserID        uint          `gorm:"index;not null" json:"user_id"`
	EbookID       uint          `gorm:"index;not null" json:"ebook_id"`
	Status        RequestStatus `gorm:"size:20;index;not null" json:"status"`
	DateRequested time.Time     `gorm:"not null;index" json:"date_requested"`
	DateGranted   *time.Time    `json:"date_granted"`
	DateRevoked   *time.Time    `json:"date_revoked"`
	DateReturned  *time.Time    `gorm:"index" json:"date_returned"`
	ReturnDate    *time.Time    `gorm:"index" json:"return_date"` // due date

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Ebook *Ebook `gorm:"foreignKey:EbookID" json:"-"`
}

type Feedback struct {
	ID          uint      `gorm:"primaryKey" json:"feedback_id"`
	UserID      uint      `gorm:"uniqueIndex:idx_feedback_user_ebook;not null" json:"user_id"`
	EbookID     uint      `gorm:"uniqueIndex:idx_feedback_user_ebook;index;not null" json:"ebook_id"`
	Rating      int       `gorm:"not null" json:"rating"`
	Comment     string    `gorm:"size:1000" json:"comment"`
	DateCreated time.Time `gorm:"not null" json:"date_created"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Ebook *Ebook `gorm:"foreignKey:EbookID" json:"-"`
}

func (Feedback) TableName() string {
	return "feedback"
}
