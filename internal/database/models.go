package database

import "time"

// SearchLogModel is the GORM mapping of the search_logs table.
type SearchLogModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	UserID       *int64    `gorm:"index"`
	Query        string    `gorm:"type:text;not null"`
	ResultsFound int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;index"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (SearchLogModel) TableName() string {
	return SearchLogsTable
}
