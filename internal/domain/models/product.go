package models

import "time"

// Product представляет товар каталога. Цена - целое неотрицательное число
type Product struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          int64     `json:"price"`
	CategoryID     *int64    `json:"category"`
	ManufacturerID *int64    `json:"manufacturer"`
	Photo          *string   `json:"photo"`
	CreatedAt      time.Time `json:"-"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Manufacturer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductFilter - параметры выборки каталога
type ProductFilter struct {
	Name           string
	PriceMin       *int64
	PriceMax       *int64
	CategoryID     *int64
	ManufacturerID *int64
	SortBy         string
}

// ProductPatch - частичное обновление товара, nil означает "не менять"
type ProductPatch struct {
	Name           *string
	Description    *string
	Price          *int64
	CategoryID     *int64
	ManufacturerID *int64
}
