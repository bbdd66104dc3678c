package notifier

import (
	"context"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-blink/service/config"
)

// IService fires a one-shot trigger at the device. Calls are best effort:
// there is no retry and the caller only logs the returned error.
type IService interface {
	Notify(ctx context.Context) error
	Target() string
	Close() error
}

// New picks the notifier configured by NOTIFIER_TYPE
func New(cfgSvc config.IService) (IService, error) {
	switch cfgSvc.GetNotifierType() {
	case config.NotifierTypeHTTP:
		return NewHTTP(cfgSvc.GetNotifierURL(), cfgSvc.GetNotifierTimeout()), nil
	case config.NotifierTypeMQTT:
		return NewMqtt(cfgSvc.GetMqttParameters(), cfgSvc.GetNotifierTimeout()), nil
	case config.NotifierTypeFake:
		return NewFake(nil), nil
	default:
		return nil, xerrors.Errorf("unknown notifier type %q", cfgSvc.GetNotifierType())
	}
}
