package types

import (
	"fmt"
	"strings"
)

// DeliveryInfo is the shipping snapshot carried through authorization
// metadata and denormalized onto the order record.
type DeliveryInfo struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Validate checks the fields required to ship an order.
func (d DeliveryInfo) Validate() error {
	if strings.TrimSpace(d.Recipient) == "" {
		return fmt.Errorf("delivery: missing recipient")
	}
	if strings.TrimSpace(d.Line1) == "" {
		return fmt.Errorf("delivery: missing line1")
	}
	if strings.TrimSpace(d.City) == "" {
		return fmt.Errorf("delivery: missing city")
	}
	if strings.TrimSpace(d.PostalCode) == "" {
		return fmt.Errorf("delivery: missing postal_code")
	}
	return nil
}
