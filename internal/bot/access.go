package bot

import (
	"context"

	"github.com/parkops/shiftbot/internal/storage"
)

// employeeChecker allows listed employees plus the configured admin.
type employeeChecker struct {
	repo    *storage.Repo
	adminID int64
}

func (a *employeeChecker) IsAllowed(ctx context.Context, userID int64) (bool, error) {
	if a.adminID != 0 && userID == a.adminID {
		return true, nil
	}
	return a.repo.IsEmployee(ctx, userID)
}
