package notifier

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/mdobak/go-xerrors"

	"github.com/khaledhikmat/vs-blink/service/config"
)

type mqttService struct {
	params  config.MqttParameters
	timeout time.Duration
	client  mqtt.Client
}

// NewMqtt returns a notifier that publishes params.Payload to params.Topic
// with QoS 0. The broker connection is opened on first use so an unreachable
// broker never blocks startup.
func NewMqtt(params config.MqttParameters, timeout time.Duration) IService {
	opts := mqtt.NewClientOptions().
		AddBroker(params.Broker).
		SetClientID(params.ClientID).
		SetConnectTimeout(timeout).
		SetWriteTimeout(timeout).
		SetAutoReconnect(false)

	if params.Username != "" && params.Password != "" {
		opts.SetUsername(params.Username)
		opts.SetPassword(params.Password)
	}

	return &mqttService{
		params:  params,
		timeout: timeout,
		client:  mqtt.NewClient(opts),
	}
}

func (svc *mqttService) Notify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return xerrors.New(err)
	}

	if !svc.client.IsConnected() {
		token := svc.client.Connect()
		if !token.WaitTimeout(svc.timeout) {
			return xerrors.New(fmt.Sprintf("connecting to %s: timed out after %s", svc.params.Broker, svc.timeout))
		}
		if err := token.Error(); err != nil {
			return xerrors.New(fmt.Sprintf("connecting to %s", svc.params.Broker), err)
		}
	}

	token := svc.client.Publish(svc.params.Topic, 0, false, svc.params.Payload)
	if !token.WaitTimeout(svc.timeout) {
		return xerrors.New(fmt.Sprintf("publishing to %s: timed out after %s", svc.params.Topic, svc.timeout))
	}
	if err := token.Error(); err != nil {
		return xerrors.New(fmt.Sprintf("publishing to %s", svc.params.Topic), err)
	}

	return nil
}

func (svc *mqttService) Target() string {
	return svc.params.Broker + "/" + svc.params.Topic
}

func (svc *mqttService) Close() error {
	if svc.client.IsConnected() {
		svc.client.Disconnect(250)
	}
	return nil
}
