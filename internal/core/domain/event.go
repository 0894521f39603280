package domain

import (
	"github.com/shopspring/decimal"
)

type Event struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Date        string          `json:"date" yaml:"date"`
	Time        string          `json:"time" yaml:"time"`
	Location    string          `json:"location" yaml:"location"`
	Image       string          `json:"image" yaml:"image"`
	Category    string          `json:"category" yaml:"category"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
}

type User struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	Role      string `json:"role" yaml:"role"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"created_at"`
}
