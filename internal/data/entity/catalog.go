package entity

type Service struct {
	Base
	Name      string `json:"name" validate:"required,max=200"`
	Category  string `json:"category" validate:"max=100"`
	BasePrice int64  `json:"base_price" validate:"gte=0"`
	Discount  int64  `json:"discount" validate:"gte=0"`
	IsActive  bool   `json:"is_active"`
}

// NetPrice is the base price after the standing discount, never below zero.
func (s Service) NetPrice() int64 {
	if s.Discount >= s.BasePrice {
		return 0
	}
	return s.BasePrice - s.Discount
}

type Addon struct {
	Base
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"max=100"`
	Price    int64  `json:"price" validate:"gte=0"`
	IsActive bool   `json:"is_active"`
}
