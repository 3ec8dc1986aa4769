package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"signal-directory/directory"
)

const defaultAdmissionTTL = 10 * time.Minute

var (
	ErrInvalidTicket = errors.New("not a valid admission ticket")
	ErrTicketReused  = errors.New("admission ticket already used")
)

// Admission issues short-lived, single-use tickets that stand in for a
// captcha token when a verified client reconnects.
type Admission struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	lock sync.Mutex
	used map[string]time.Time
}

func NewAdmission(secret string, ttl time.Duration) *Admission {
	if ttl <= 0 {
		ttl = defaultAdmissionTTL
	}
	return &Admission{secret: []byte(secret), ttl: ttl, now: time.Now, used: make(map[string]time.Time)}
}

func (a *Admission) Issue(id directory.ConnectionID) (string, error) {
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   string(id),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	})
	return token.SignedString(a.secret)
}

func (a *Admission) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}

// Redeem consumes a ticket and returns the connection it was issued to.
// A ticket id is remembered until the ticket expires.
func (a *Admission) Redeem(tokenString string) (directory.ConnectionID, error) {
	claims, err := a.parse(tokenString)
	if err != nil {
		return "", err
	}

	a.lock.Lock()
	defer a.lock.Unlock()
	now := a.now()
	for id, expires := range a.used {
		if !now.Before(expires) {
			delete(a.used, id)
		}
	}
	if _, seen := a.used[claims.ID]; seen {
		return "", ErrTicketReused
	}
	a.used[claims.ID] = claims.ExpiresAt.Time
	return directory.ConnectionID(claims.Subject), nil
}
