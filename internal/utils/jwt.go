package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const dashboardTokenTTL = 24 * time.Hour

// DashboardClaims identifies an emergency-dashboard subscriber.
type DashboardClaims struct {
	SubscriberRole string `json:"subscriber_role"`
	jwt.RegisteredClaims
}

func GenerateDashboardToken(subject, role, secretKey string) (string, error) {
	claims := &DashboardClaims{
		SubscriberRole: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(dashboardTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "drowsyguard",
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

func ValidateDashboardToken(tokenString, secretKey string) (*DashboardClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DashboardClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*DashboardClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
