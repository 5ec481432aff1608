package model

import (
	"time"
)

// Link is an accepted share link.
type Link struct {
	ID        uint   `gorm:"primaryKey"`
	Hash      string `gorm:"uniqueIndex"`
	Raw       string
	Protocol  string `gorm:"index"`
	Source    string
	CreatedAt time.Time

	// Connection Details (Entry Point)
	Address string // The IP or Domain we connect to
	Port    int

	// Entry Metadata, filled when the address was resolved
	EntryIP      string
	EntryISP     string
	EntryCountry string
}

// Rejection keeps a per-source tally of links that failed validation.
type Rejection struct {
	Source string `gorm:"primaryKey"`
	Kind   string `gorm:"primaryKey"`
	Count  int64
	LastAt time.Time
}
