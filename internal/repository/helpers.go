package repository

import "database/sql"

// nullString は空文字列をNULLとしてバインドするためのヘルパー。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
