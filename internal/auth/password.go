package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes はパスワードの最大長（バイト）。
// bcrypt自体は72バイトで切り捨てるが、SHA-256前処理後は16進64文字に
// 正規化されるため、この制限は入力検証としてのみ機能する。
const maxPasswordBytes = 72

// prehashPassword はパスワードをSHA-256でハッシュして16進文字列にする。
// bcryptの72バイト制限の影響を受けずに任意長のパスワードを扱うための前処理。
func prehashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// HashPassword はパスワードのbcryptハッシュを生成する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(prehashPassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードとbcryptハッシュを照合する。
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(prehashPassword(password))) == nil
}
