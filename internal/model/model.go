package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// MaxShippingAddresses is the number of saved addresses a user may keep.
const MaxShippingAddresses = 2

type User struct {
	ID                uuid.UUID
	Name              string
	Email             string
	Password          string
	Role              string
	AvatarURL         string
	ShippingAddresses []Address
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Address is stored as JSON on users, checkouts and orders.
type Address struct {
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// MissingField returns the JSON name of the first empty field, or "".
func (a Address) MissingField() string {
	fields := []struct{ name, value string }{
		{"firstname", a.FirstName},
		{"lastname", a.LastName},
		{"phone", a.Phone},
		{"address", a.Address},
		{"city", a.City},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
	}
	for _, f := range fields {
		if f.value == "" {
			return f.name
		}
	}
	return ""
}

type ProductImage struct {
	URL     string `json:"url"`
	AltText string `json:"altText"`
}

type Product struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	Stock         int
	SKU           string
	Category      string
	Brand         string
	Sizes         []string
	Colors        []string
	Images        []ProductImage
	IsFeatured    bool
	IsPublished   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (p *Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	Search   string
	Category string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Sort     string
	Order    string
}

type OrderMessage struct {
	OrderID uuid.UUID `json:"order_id"`
	UserID  uuid.UUID `json:"user_id"`
}
