package auth

import (
	"fmt"
	"time"

	"siparis-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type JWTCustomClaims struct {
	Email    string          `json:"email"`
	Role     models.UserRole `json:"role"`
	BranchID *uuid.UUID      `json:"branch_id"`
	CenterID *uuid.UUID      `json:"center_id"`
	jwt.RegisteredClaims
}

// GenerateToken: Subject = kullanıcı ID
func GenerateToken(secret string, user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		Email:    user.Email,
		Role:     user.Role,
		BranchID: user.BranchID,
		CenterID: user.CenterID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken: İmza, süre ve subject kontrolü
func ParseToken(secret, tokenStr string) (*JWTCustomClaims, uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("geçersiz imzalama yöntemi")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, uuid.Nil, fmt.Errorf("geçersiz veya süresi dolmuş token")
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok {
		return nil, uuid.Nil, fmt.Errorf("token çözümlenemedi")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("token kullanıcı bilgisi geçersiz")
	}
	return claims, userID, nil
}
