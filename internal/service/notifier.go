package service

import (
	"context"

	"github.com/YusovID/visit-planner/internal/domain"
)

// Notifier informs a representative's manager about a postponed visit.
// Delivery is best effort; callers only log returned errors.
type Notifier interface {
	NotifyPostponed(ctx context.Context, notice domain.PostponeNotice) error
}
