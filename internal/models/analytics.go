package models

import "time"

// PromoStatsFilter задаёт период для аналитики промокодов.
type PromoStatsFilter struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	Top  int       `json:"top"`
}

// PromoCodeStat — агрегаты по одному коду.
type PromoCodeStat struct {
	Code          string  `json:"code"`
	Redemptions   int     `json:"redemptions"`
	TotalDiscount float64 `json:"total_discount"`
}

// PromoStats — сводка по использованию промокодов за период.
type PromoStats struct {
	From            time.Time       `json:"from"`
	To              time.Time       `json:"to"`
	Redemptions     int             `json:"redemptions"`
	TotalDiscount   float64         `json:"total_discount"`
	AverageDiscount float64         `json:"average_discount"`
	TopCodes        []PromoCodeStat `json:"top_codes"`
	GeneratedAt     time.Time       `json:"generated_at"`
}
