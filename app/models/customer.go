package models

import (
	"strings"
	"time"
)

// Customer is created or merged as a side effect of order finalization.
type Customer struct {
	ID         string    `gorm:"primaryKey;type:varchar(100)" json:"id"`
	Name       string    `gorm:"type:varchar(200);default:''" json:"name"`
	Email      string    `gorm:"type:varchar(200);default:''" json:"email"`
	Phone      string    `gorm:"type:varchar(50);default:''" json:"phone"`
	Address    string    `gorm:"type:varchar(300);default:''" json:"address"`
	City       string    `gorm:"type:varchar(100);default:''" json:"city"`
	Department string    `gorm:"type:varchar(100);default:''" json:"department"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GuestCustomerID is the customer key used when checkout had no user id.
func GuestCustomerID(orderRef string) string {
	return "guest:" + orderRef
}

// Merge fills empty fields from info. Existing non-empty values win.
// It returns true when at least one field changed.
func (c *Customer) Merge(info CustomerInfo) bool {
	changed := false
	fill := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if strings.TrimSpace(*dst) == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fill(&c.Name, info.Name)
	fill(&c.Email, info.Email)
	fill(&c.Phone, info.Phone)
	fill(&c.Address, info.Address)
	fill(&c.City, info.City)
	fill(&c.Department, info.Department)
	return changed
}
