package rpc

import (
	"context"

	"google.golang.org/grpc"

	"RapidSafe/internal/alerting"
)

// Client calls AlertService over an existing connection dialled with
// grpcx.Dial (JSON codec, bearer header).
type Client struct {
	cc *grpc.ClientConn
}

func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateAlert(ctx context.Context, req *alerting.CreateAlertRequest) (*alerting.CreateAlertResponse, error) {
	out := new(alerting.CreateAlertResponse)
	if err := c.cc.Invoke(ctx, MethodCreateAlert, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*alerting.LocationUpdateResult, error) {
	out := new(alerting.LocationUpdateResult)
	if err := c.cc.Invoke(ctx, MethodUpdateLocation, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResolveAlert(ctx context.Context, req *AlertRef) (*alerting.Snapshot, error) {
	out := new(alerting.Snapshot)
	if err := c.cc.Invoke(ctx, MethodResolveAlert, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelAlert(ctx context.Context, req *AlertRef) (*alerting.Snapshot, error) {
	out := new(alerting.Snapshot)
	if err := c.cc.Invoke(ctx, MethodCancelAlert, req, out); err != nil {
		return nil, err
	}
	return out, nil
}
