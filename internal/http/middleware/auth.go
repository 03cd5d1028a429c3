package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nixie-Tech-LLC/kidcurate/internal/model"
)

// is returned when email/password don’t match.
var ErrInvalidCredentials = errors.New("invalid email or password")

const currentGuardianKey = "currentGuardian"

// uses bcrypt to hash a plaintext password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// compares a bcrypt hash with the plaintext.
func CheckPassword(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// retrieves *model.Guardian from Gin context (after JWTMiddleware has run).
func GetCurrentGuardian(c *gin.Context) (*model.Guardian, bool) {
	g, exists := c.Get(currentGuardianKey)
	if !exists {
		return nil, false
	}
	guardian, ok := g.(*model.Guardian)
	return guardian, ok
}
