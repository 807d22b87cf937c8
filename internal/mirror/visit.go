package mirror

import "gorm.io/gorm"

// Visit records the outcome of one mirrored request. Page content is never stored.
type Visit struct {
	gorm.Model
	Account    string `gorm:"size:255;index:idx_visits_wiki;not null"`
	Repository string `gorm:"size:255;index:idx_visits_wiki;not null"`
	Page       string `gorm:"size:512;not null;default:''"`
	Outcome    string `gorm:"size:32;index:idx_visits_outcome;not null"`
	Title      string `gorm:"size:512"`
}

// TableName defines the table name for the Visit model.
func (Visit) TableName() string {
	return "visits"
}
