package model

import (
	"bytes"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Description  string             `json:"description" bson:"description"`
	Price        string             `json:"price" bson:"price"`
	ImageURL     string             `json:"imageUrl" bson:"imageUrl"`
	IsNewRelease bool               `json:"isNewRelease" bson:"isNewRelease"`
}

// ProductInput carries client-supplied product fields. IsNewRelease is a pointer so "not sent" is distinguishable.
type ProductInput struct {
	Name         string    `json:"name" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	Price        PriceText `json:"price"`
	ImageURL     string    `json:"imageUrl" validate:"required"`
	IsNewRelease *bool     `json:"isNewRelease,omitempty"`
}

// PriceText accepts a price sent either as a JSON string or a bare JSON number and keeps its text form.
type PriceText string

func (p *PriceText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*p = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PriceText(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*p = PriceText(n.String())
	}
	return nil
}
