package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ashtonliu88/SlugScheduler/internal/dto"
	"github.com/ashtonliu88/SlugScheduler/pkg/jwt"
)

// SessionService issues anonymous student sessions. Students have no
// account: the session token carries a generated student id that scopes
// their plans.
type SessionService interface {
	Create(ctx context.Context) (*dto.SessionResponse, error)
}

type sessionService struct {
	jwtMgr *jwt.Manager
	logger *zap.Logger
}

// NewSessionService creates a SessionService.
func NewSessionService(jwtMgr *jwt.Manager, logger *zap.Logger) SessionService {
	return &sessionService{jwtMgr: jwtMgr, logger: logger}
}

func (s *sessionService) Create(_ context.Context) (*dto.SessionResponse, error) {
	studentID := uuid.NewString()
	token, err := s.jwtMgr.GenerateSessionToken(studentID)
	if err != nil {
		s.logger.Error("sign session token failed", zap.Error(err))
		return nil, err
	}
	return &dto.SessionResponse{
		Token:     token,
		StudentID: studentID,
		ExpiresIn: int(s.jwtMgr.SessionTTL().Seconds()),
	}, nil
}
