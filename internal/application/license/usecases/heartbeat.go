package usecases

import (
	"context"
	"time"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type HeartbeatCommand struct {
	LicenseKey string
	HardwareID string
}

// HeartbeatUseCase is a lightweight liveness ping: it runs the full
// validation decision, stamps last_seen_at, and returns the server clock plus
// the current server-issued grace deadline for the client cache.
type HeartbeatUseCase struct {
	validateUC *ValidateLicenseUseCase
	logger     logger.Interface
}

func NewHeartbeatUseCase(
	validateUC *ValidateLicenseUseCase,
	logger logger.Interface,
) *HeartbeatUseCase {
	return &HeartbeatUseCase{
		validateUC: validateUC,
		logger:     logger,
	}
}

func (uc *HeartbeatUseCase) Execute(ctx context.Context, cmd HeartbeatCommand) (*dto.HeartbeatResultDTO, error) {
	result, err := uc.validateUC.Execute(ctx, ValidateLicenseCommand{
		LicenseKey: cmd.LicenseKey,
		HardwareID: cmd.HardwareID,
	})
	if err != nil {
		return nil, err
	}

	return &dto.HeartbeatResultDTO{
		ServerTime:        time.Now(),
		GracePeriodEndsAt: result.GracePeriodEndsAt,
	}, nil
}
