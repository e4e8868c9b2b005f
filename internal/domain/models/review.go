package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	MinGrade = decimal.Zero
	MaxGrade = decimal.NewFromInt(5)
)

// Review - оценка товара пользователем
type Review struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	UserID    int64           `json:"user_id"`
	AuthorFIO string          `json:"author,omitempty"`
	Text      string          `json:"text"`
	Grade     decimal.Decimal `json:"grade"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ValidGrade проверяет, что оценка в диапазоне [0, 5] с шагом 0.1
func ValidGrade(g decimal.Decimal) bool {
	if g.LessThan(MinGrade) || g.GreaterThan(MaxGrade) {
		return false
	}
	return g.Mul(decimal.NewFromInt(10)).IsInteger()
}

// AverageGrade считает средний рейтинг, nil если отзывов нет
func AverageGrade(reviews []*Review) *decimal.Decimal {
	if len(reviews) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, r := range reviews {
		sum = sum.Add(r.Grade)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(reviews)))).Round(1)
	return &avg
}
