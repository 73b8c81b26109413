package sqlstore

import (
	"context"
	"time"

	"github.com/usama-mangi/kushim-web-sub002/internal/auth/store"
)

type totpStepsRepo struct {
	q *Queries
	d Dialect
}

func (r *totpStepsRepo) ConsumeTOTPStep(ctx context.Context, identityID string, step int64, expiresAt time.Time) error {
	n, err := r.q.ConsumeTOTPStep(ctx, identityID, step, expiresAt.UTC())
	if err != nil {
		return mapWriteErr(r.d, err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *totpStepsRepo) DeleteExpiredTOTPSteps(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredTOTPSteps(ctx, now.UTC())
}
