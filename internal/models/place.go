package models

import "time"

// Place is a numbered slot on the slag yard where a bucket can be set down.
// The human-facing place code is row*100+number; (row, number) is unique.
type Place struct {
	ID        string    `db:"id" json:"id"`
	Row       int       `db:"yard_row" json:"row"`
	Number    int       `db:"number" json:"number"`
	IsEnabled bool      `db:"is_enabled" json:"is_enabled"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Code returns the operator-facing place code.
func (p Place) Code() int {
	return p.Row*100 + p.Number
}

// PlaceFilter defines filters supported by the place list endpoint.
type PlaceFilter struct {
	Row       int
	IsEnabled *bool
	Page      int
	PageSize  int
}
