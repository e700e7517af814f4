package domain

import (
	"time"

	"github.com/heavy-duty/docstate/docstore"
)

// SeasonAttribute is one trait shown on season and reward collectibles.
type SeasonAttribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Season struct {
	ID          string
	Name        string
	Title       string
	Description string
	Website     string
	Symbol      string
	ImageURL    string
	IsActive    bool
	Attributes  []SeasonAttribute
	CreatedAt   *time.Time
}

// ToSeason maps a "seasons" document.
func ToSeason(id string, data docstore.Fields) (Season, error) {
	r := read(data)

	return Season{
		ID:          id,
		Name:        r.str("name"),
		Title:       r.str("title"),
		Description: r.str("description"),
		Website:     r.str("website"),
		Symbol:      r.str("symbol"),
		ImageURL:    r.str("imageUrl"),
		IsActive:    r.boolean("isActive"),
		Attributes:  r.attributes("attributes"),
		CreatedAt:   r.timestamp("createdAt"),
	}, r.err
}
