// Package model はドメインモデルを定義する。
package model

import "time"

// ユーザーロール
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User はストア利用ユーザーを表す。
// PasswordHash はbcryptハッシュのみを保持し、平文パスワードは保存しない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
	Phone        string
	Role         string // customer / admin
	Locale       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin は管理者ロールかどうかを返す。
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Address はユーザーの配送先住所を表す。
// IsDefault がtrueの住所はユーザーごとに高々1件。
type Address struct {
	ID         string
	UserID     string
	Label      string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	IsDefault  bool
	CreatedAt  time.Time
}
