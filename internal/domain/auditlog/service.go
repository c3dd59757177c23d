package auditlog

import "context"

// Service exposes the read side of the audit trail.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListForUser(ctx context.Context, userID, limit, offset int) ([]*AuditLog, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
