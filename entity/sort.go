package entity

// Direction orders a sort field ascending or descending.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort directs result ordering by a single catalog field.
// A query with no ordering intent carries an empty []Sort.
type Sort struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}
