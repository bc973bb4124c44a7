package models

import "github.com/google/uuid"

// CartItem — структурированная позиция корзины. Движок скидок работает только
// с тегами и ценами из каталога, никогда — с отображаемыми строками.
type CartItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Flavor    string    `json:"flavor,omitempty"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
}

// CartItemRequest — позиция корзины в запросе клиента (только идентификатор и количество).
type CartItemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// CartSnapshot — корзина на момент оценки. Не персистится как сущность,
// строится заново для каждой проверки.
type CartSnapshot struct {
	Items []CartItem `json:"items"`
}

// Subtotal возвращает сумму корзины без доставки и скидок.
func (c *CartSnapshot) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// UnitCount возвращает суммарное количество единиц товара в корзине.
func (c *CartSnapshot) UnitCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}
