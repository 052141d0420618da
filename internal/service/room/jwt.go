package room

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	MemberID string
	RoomID   string
}

func (s service) generateJWT(roomID, memberID string) (string, error) {
	claims := jwt.MapClaims{
		"member_id": memberID,
		"room_id":   roomID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// ParseAuthToken verifies an auth token issued by CreateRoom or JoinRoom.
func (s service) ParseAuthToken(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidAuthToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidAuthToken
	}

	memberID, _ := claims["member_id"].(string)
	roomID, _ := claims["room_id"].(string)
	if memberID == "" || roomID == "" {
		return Claims{}, ErrInvalidAuthToken
	}

	return Claims{MemberID: memberID, RoomID: roomID}, nil
}
