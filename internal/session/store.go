package session

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/caja-service/internal/domain"
)

type Store interface {
	Get(ctx context.Context, terminalID string) (*domain.Session, error)
	Set(ctx context.Context, sess *domain.Session) error
	Delete(ctx context.Context, terminalID string) error
}

var ErrSessionMiss = errors.New("session miss")
