package models

// Cart - корзина пользователя, множество ссылок на товары
type Cart struct {
	ID       int64
	UserID   int64
	Products []*Product
}

// Total считает сумму по текущим ценам товаров
func (c *Cart) Total() int64 {
	var total int64
	for _, p := range c.Products {
		total += p.Price
	}
	return total
}
