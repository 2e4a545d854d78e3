// Package snapshot defines the normalized community snapshot delivered by the
// external importer, and validates it at the ingestion boundary.
//
// The payload is semi-structured: most fields are optional and defaulted
// here, so missing keys never surface as failures deep inside persistence.
package snapshot

import (
	"errors"
	"fmt"
	"strings"
)

// PriceNotSpecified is the sentinel stored when a product or service arrives
// without a price.
const PriceNotSpecified = "not specified"

var (
	// ErrMissingIdentifier indicates the snapshot lacks a community id.
	ErrMissingIdentifier = errors.New("snapshot is missing community identifier")

	// ErrInvalid indicates the snapshot is malformed beyond a missing id.
	ErrInvalid = errors.New("invalid snapshot")
)

// Community describes the community profile section of a snapshot.
// The id is externally assigned and may be negative for virtual communities
// that have no real counterpart on the source platform.
type Community struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Category         string `json:"category,omitempty"`
	SubscribersCount int    `json:"subscribers_count,omitempty"`
}

// Post is one historical publication with its engagement counters.
// Date is the publication time in unix seconds; zero when the importer
// omits it.
type Post struct {
	Text     string `json:"text"`
	Date     int64  `json:"date,omitempty"`
	Likes    int    `json:"likes,omitempty"`
	Comments int    `json:"comments,omitempty"`
	Reposts  int    `json:"reposts,omitempty"`
}

// Offer is a product or service entry. Products and services share a shape;
// they differ only in which snapshot list they arrive in.
type Offer struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

// Snapshot is one full point-in-time description of a community.
type Snapshot struct {
	Community Community `json:"community"`
	Posts     []Post    `json:"posts"`
	Products  []Offer   `json:"products"`
	Services  []Offer   `json:"services"`
}

// Validate checks the snapshot at the ingestion boundary.
// A zero community id maps to ErrMissingIdentifier, other malformed input to
// ErrInvalid. Optional fields are not validated; they are defaulted by
// Normalize.
func (s *Snapshot) Validate() error {
	if s.Community.ID == 0 {
		return ErrMissingIdentifier
	}
	if strings.TrimSpace(s.Community.Name) == "" {
		return fmt.Errorf("%w: community name is empty", ErrInvalid)
	}
	for i, p := range s.Posts {
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%w: post %d has empty text", ErrInvalid, i)
		}
	}
	for i, p := range s.Products {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: product %d has empty name", ErrInvalid, i)
		}
	}
	for i, sv := range s.Services {
		if strings.TrimSpace(sv.Name) == "" {
			return fmt.Errorf("%w: service %d has empty name", ErrInvalid, i)
		}
	}
	return nil
}

// Normalize trims whitespace from text fields and applies defaults
// (missing price becomes PriceNotSpecified). It mutates the snapshot in
// place and is idempotent.
func (s *Snapshot) Normalize() {
	s.Community.Name = strings.TrimSpace(s.Community.Name)
	s.Community.Description = strings.TrimSpace(s.Community.Description)
	s.Community.Category = strings.TrimSpace(s.Community.Category)

	for i := range s.Posts {
		s.Posts[i].Text = strings.TrimSpace(s.Posts[i].Text)
	}
	normalizeOffers(s.Products)
	normalizeOffers(s.Services)
}

func normalizeOffers(offers []Offer) {
	for i := range offers {
		offers[i].Name = strings.TrimSpace(offers[i].Name)
		offers[i].Description = strings.TrimSpace(offers[i].Description)
		offers[i].Price = strings.TrimSpace(offers[i].Price)
		if offers[i].Price == "" {
			offers[i].Price = PriceNotSpecified
		}
	}
}
