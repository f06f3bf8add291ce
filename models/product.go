package models

import "time"

// ProductRecord is one tracked page and the attributes from its most
// recent successful extraction. Empty attribute strings mean "not found".
type ProductRecord struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Contact     string `json:"contact"`
	Size        string `json:"size"`
	Category    string `json:"category"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no memory with r.
func (r *ProductRecord) Clone() *ProductRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
