package models

import "time"

// User представляет покупателя или сотрудника магазина
type User struct {
	ID        int64
	Email     string
	FIO       string
	PassHash  []byte
	IsActive  bool
	IsStaff   bool
	CreatedAt time.Time
}

// AuthToken - постоянный bearer-токен пользователя, один на пользователя
type AuthToken struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired сообщает, истёк ли срок действия токена на момент now
func (t *AuthToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Principal - то, что middleware кладёт в контекст запроса после проверки токена
type Principal struct {
	UserID   int64
	IsActive bool
	IsStaff  bool
}
