package models

// Classroom is a bookable teaching room.
type Classroom struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
	IsActive bool   `db:"is_active" json:"is_active"`
}
