package models

// Library is a physical library that books are held in and users are members of.
type Library struct {
	ID       string `json:"id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	Location string `json:"location" bson:"location"`
}
