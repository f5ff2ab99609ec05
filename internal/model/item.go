package model

import "time"

// Item is an inventory record claims can be filed against.
type Item struct {
	ID             ID        `json:"id"`
	ModelName      string    `json:"model_name"`
	ItemType       string    `json:"item_type"`
	Batch          string    `json:"batch"`
	ProductionDate time.Time `json:"production_date"`
	Wattage        float64   `json:"wattage"`
	Supplier       string    `json:"supplier"`
	Contractor     string    `json:"contractor,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ItemFilter narrows item listings. Empty fields are ignored.
type ItemFilter struct {
	ModelName string
	ItemType  string
	Batch     string
	Skip      int
	Limit     int
}

// AgeReport is the answer to an item age probe.
type AgeReport struct {
	ItemID               ID     `json:"item_id"`
	ModelName            string `json:"model_name"`
	Batch                string `json:"batch"`
	ProductionDate       string `json:"production_date"`
	AgeMonths            int    `json:"age_months"`
	IsOld                bool   `json:"is_old"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Message              string `json:"message"`
}
