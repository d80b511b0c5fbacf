package dispatch

import (
	"context"

	"RapidSafe/internal/alerting"
	"RapidSafe/internal/models"
	"RapidSafe/internal/rpc"
)

// RPCBackend reaches the server through the gRPC callable.
type RPCBackend struct {
	cli *rpc.Client
}

func NewRPCBackend(cli *rpc.Client) *RPCBackend {
	return &RPCBackend{cli: cli}
}

func (b *RPCBackend) CreateAlert(ctx context.Context, req *alerting.CreateAlertRequest) (*alerting.CreateAlertResponse, error) {
	return b.cli.CreateAlert(ctx, req)
}

func (b *RPCBackend) PushLocation(ctx context.Context, alertID string, upd alerting.LocationUpdate) (bool, error) {
	res, err := b.cli.UpdateLocation(ctx, &rpc.UpdateLocationRequest{AlertID: alertID, Update: upd})
	if err != nil {
		return false, err
	}
	return res.Applied, nil
}

func (b *RPCBackend) EndAlert(ctx context.Context, alertID, status string) (*alerting.Snapshot, error) {
	ref := &rpc.AlertRef{AlertID: alertID}
	if status == models.AlertStatusCancelled {
		return b.cli.CancelAlert(ctx, ref)
	}
	return b.cli.ResolveAlert(ctx, ref)
}
