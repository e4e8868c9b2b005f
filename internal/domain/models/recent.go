package models

import "time"

// RecentProduct - отметка о просмотре товара пользователем
type RecentProduct struct {
	ProductID int64
	UserID    int64
	ViewedAt  time.Time
}
