package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const approvalTokenTTL = 72 * time.Hour

var ErrApprovalTokenInvalid = errors.New("approval token is invalid or expired")

type approvalClaims struct {
	UserID string `json:"uid"`
	PostID int64  `json:"pid"`
	jwt.RegisteredClaims
}

func approvalKey(secret string) []byte {
	return []byte(secret + ":approval-link")
}

// IssueApprovalToken signs a link token that lets a reviewer approve or
// reject a post from a message without being logged in.
func IssueApprovalToken(secret, userID string, postID int64) (string, error) {
	if secret == "" {
		return "", errors.New("STATE_SIGNING_SECRET is required")
	}

	now := time.Now()
	claims := approvalClaims{
		UserID: userID,
		PostID: postID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(approvalTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(approvalKey(secret))
}

func ParseApprovalToken(secret, tokenString string) (userID string, postID int64, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &approvalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrApprovalTokenInvalid
		}
		return approvalKey(secret), nil
	})
	if err != nil {
		return "", 0, ErrApprovalTokenInvalid
	}

	claims, ok := token.Claims.(*approvalClaims)
	if !ok || !token.Valid || claims.UserID == "" || claims.PostID == 0 {
		return "", 0, ErrApprovalTokenInvalid
	}
	return claims.UserID, claims.PostID, nil
}
