package models

import "time"

// Post is a text entry, optionally with an image and a group.
type Post struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	PubDate  time.Time `json:"pub_date" gorm:"<-:create;autoCreateTime;index"`
	AuthorID uint      `json:"author_id" gorm:"not null;index"`
	Author   User      `json:"author" gorm:"constraint:OnDelete:CASCADE;"`
	GroupID  *uint     `json:"group_id,omitempty" gorm:"index"`
	Group    *Group    `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	Image    *string   `json:"image,omitempty" gorm:"size:255"` // storage key
}

// HasImage reports whether an image is attached.
func (p Post) HasImage() bool {
	return p.Image != nil && *p.Image != ""
}

// ImageKey returns the storage key or "".
func (p Post) ImageKey() string {
	if p.Image == nil {
		return ""
	}
	return *p.Image
}
