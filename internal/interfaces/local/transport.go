// Package local adapts the license engine to the SDK's Transport interface
// so embedded deployments can validate in-process, without an HTTP hop. It
// performs the same request decoding and error encoding the remote boundary
// does.
package local

import (
	"context"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/application/license/usecases"
	apperrors "github.com/warden-sh/warden/internal/shared/errors"
	sdk "github.com/warden-sh/warden/sdk/license"
)

// Transport routes SDK calls straight into the use case engine.
type Transport struct {
	engine *usecases.Engine
}

// NewTransport creates an in-process SDK transport over the engine.
func NewTransport(engine *usecases.Engine) *Transport {
	return &Transport{engine: engine}
}

func (t *Transport) Bind(ctx context.Context, req sdk.BindRequest) (*sdk.BindResult, error) {
	result, err := t.engine.Bind.Execute(ctx, usecases.BindLicenseCommand{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
		DeviceName: req.DeviceName,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		return nil, encodeError(err)
	}
	return &sdk.BindResult{
		Bound:      result.Bound,
		AlreadyWas: result.AlreadyWas,
		BoundAt:    result.BoundAt,
	}, nil
}

func (t *Transport) Release(ctx context.Context, req sdk.ValidateRequest) error {
	err := t.engine.Release.Execute(ctx, usecases.ReleaseLicenseCommand{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
	})
	if err != nil {
		return encodeError(err)
	}
	return nil
}

func (t *Transport) Validate(ctx context.Context, req sdk.ValidateRequest) (*sdk.ValidationResult, error) {
	result, err := t.engine.Validate.Execute(ctx, usecases.ValidateLicenseCommand{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
	})
	if err != nil {
		return nil, encodeError(err)
	}
	return toSDKValidation(result), nil
}

func (t *Transport) ValidateOrBind(ctx context.Context, req sdk.BindRequest) (*sdk.ValidationResult, error) {
	result, err := t.engine.ValidateOrBind.Execute(ctx, usecases.ValidateOrBindCommand{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
		DeviceName: req.DeviceName,
		DeviceInfo: req.DeviceInfo,
	})
	if err != nil {
		return nil, encodeError(err)
	}
	return toSDKValidation(result), nil
}

func (t *Transport) Heartbeat(ctx context.Context, req sdk.ValidateRequest) (*sdk.HeartbeatResult, error) {
	result, err := t.engine.Heartbeat.Execute(ctx, usecases.HeartbeatCommand{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
	})
	if err != nil {
		return nil, encodeError(err)
	}
	return &sdk.HeartbeatResult{
		ServerTime:        result.ServerTime,
		GracePeriodEndsAt: result.GracePeriodEndsAt,
	}, nil
}

func (t *Transport) ValidateFeature(ctx context.Context, req sdk.FeatureRequest) (*sdk.ValidationResult, error) {
	result, err := t.engine.ValidateFeature.Execute(ctx, usecases.ValidateFeatureCommand{
		LicenseKey: req.LicenseKey,
		HardwareID: req.HardwareID,
		Feature:    req.Feature,
	})
	if err != nil {
		return nil, encodeError(err)
	}
	return toSDKValidation(result), nil
}

func toSDKValidation(result *dto.ValidationResultDTO) *sdk.ValidationResult {
	return &sdk.ValidationResult{
		Valid:             result.Valid,
		Features:          result.Features,
		Tier:              result.Tier,
		ExpiresAt:         result.ExpiresAt,
		GracePeriodEndsAt: result.GracePeriodEndsAt,
		Warning:           result.Warning,
		ValidatedAt:       result.ValidatedAt,
	}
}

// encodeError converts engine errors into the SDK's authoritative error
// shape, exactly as the remote boundary serializes them onto the wire.
func encodeError(err error) error {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return &sdk.APIError{Code: appErr.Code, Message: appErr.Message}
	}
	return err
}
