package model

import (
	"encoding/json"
	"strings"
)

const TransactionTypeRental = "RENTAL"

// Property is the part of a property-service record this service reads.
type Property struct {
	ID              json.Number `json:"id"`
	Title           string      `json:"title"`
	Type            string      `json:"type"`
	TransactionType string      `json:"transactionType"`
	Price           *Money      `json:"price"`
	MonthlyRent     *Money      `json:"monthlyRent"`
	Surface         *int        `json:"surface"`
	Rooms           *int        `json:"rooms"`
	Bathrooms       *int        `json:"bathrooms"`
	Address         string      `json:"address"`
	City            string      `json:"city"`
}

func (p *Property) IsRental() bool {
	return strings.EqualFold(strings.TrimSpace(p.TransactionType), TransactionTypeRental)
}

func (p *Property) Summary() *PropertySummary {
	return &PropertySummary{
		Title:     p.Title,
		City:      p.City,
		Type:      p.Type,
		Rooms:     p.Rooms,
		Bathrooms: p.Bathrooms,
		Surface:   p.Surface,
		Address:   p.Address,
	}
}

// PropertySummary is the display view attached to listings.
type PropertySummary struct {
	Title     string `json:"title,omitempty"`
	City      string `json:"city,omitempty"`
	Type      string `json:"type,omitempty"`
	Rooms     *int   `json:"rooms,omitempty"`
	Bathrooms *int   `json:"bathrooms,omitempty"`
	Surface   *int   `json:"surface,omitempty"`
	Address   string `json:"address,omitempty"`
}
