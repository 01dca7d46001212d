package models

import "time"

// Book is a title held by a library.
//
// AuthorName and AuthorCountry are a snapshot of the referenced Author taken on the
// write path. They are not re-synced when the Author record changes later.
type Book struct {
	ID            string    `json:"id" bson:"_id"`
	Title         string    `json:"title" bson:"title"`
	Author        string    `json:"author" bson:"author"`
	AuthorName    string    `json:"authorName" bson:"author_name"`
	AuthorCountry string    `json:"authorCountry" bson:"author_country"`
	PublishedDate time.Time `json:"publishedDate" bson:"published_date"`
	Pages         int       `json:"pages" bson:"pages"`
	Library       string    `json:"library" bson:"library"`
}

// FeedItem is a Book projected into the ranked feed together with its ranking inputs.
type FeedItem struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedDate time.Time `json:"publishedDate"`
	Pages         int       `json:"pages"`
	Library       string    `json:"library"`
	AuthorName    string    `json:"authorName"`
	AuthorCountry string    `json:"authorCountry"`
	IsSameCountry int       `json:"isSameCountry"`
	AgeYears      float64   `json:"ageYears"`
	Score         float64   `json:"score"`
}
