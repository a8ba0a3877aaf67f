package model

const (
	// CarouselID is the _id of the singleton carousel document.
	CarouselID = "main"

	// CarouselCapacity bounds the number of images the carousel may hold.
	CarouselCapacity = 5
)

type Carousel struct {
	ID      string   `json:"-" bson:"_id"`
	Images  []string `json:"images" bson:"images"`
	Version int64    `json:"-" bson:"version"`
}
