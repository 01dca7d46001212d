package models

// Author represents a book author.
type Author struct {
	ID      string `json:"id" bson:"_id"`
	Name    string `json:"name" bson:"name"`
	Country string `json:"country" bson:"country"`
}
