package rpc

import (
	"context"

	"google.golang.org/grpc"

	"RapidSafe/internal/alerting"
	"RapidSafe/pkg/grpcx"
	"RapidSafe/pkg/middleware"
)

const (
	ServiceName          = "rapidsafe.v1.AlertService"
	MethodCreateAlert    = "/" + ServiceName + "/CreateAlert"
	MethodUpdateLocation = "/" + ServiceName + "/UpdateLocation"
	MethodResolveAlert   = "/" + ServiceName + "/ResolveAlert"
	MethodCancelAlert    = "/" + ServiceName + "/CancelAlert"
)

type UpdateLocationRequest struct {
	AlertID string                  `json:"alertId"`
	Update  alerting.LocationUpdate `json:"update"`
}

type AlertRef struct {
	AlertID string `json:"alertId"`
}

// AlertServiceServer is the callable surface of the alert service.
type AlertServiceServer interface {
	CreateAlert(ctx context.Context, req *alerting.CreateAlertRequest) (*alerting.CreateAlertResponse, error)
	UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*alerting.LocationUpdateResult, error)
	ResolveAlert(ctx context.Context, req *AlertRef) (*alerting.Snapshot, error)
	CancelAlert(ctx context.Context, req *AlertRef) (*alerting.Snapshot, error)
}

// Server adapts alerting.Service to gRPC. Callers authenticate with an
// "authorization: Bearer <token>" metadata entry.
type Server struct {
	svc    *alerting.Service
	tokens middleware.TokenVerifier
}

func NewServer(svc *alerting.Service, tokens middleware.TokenVerifier) *Server {
	return &Server{svc: svc, tokens: tokens}
}

func (s *Server) caller(ctx context.Context) *alerting.Identity {
	tok := grpcx.BearerFromContext(ctx)
	if tok == "" {
		return nil
	}
	uid, ok := s.tokens.Verify(ctx, tok)
	if !ok {
		return nil
	}
	return &alerting.Identity{UID: uid}
}

func (s *Server) CreateAlert(ctx context.Context, req *alerting.CreateAlertRequest) (*alerting.CreateAlertResponse, error) {
	return s.svc.CreateAlert(ctx, s.caller(ctx), *req)
}

func (s *Server) UpdateLocation(ctx context.Context, req *UpdateLocationRequest) (*alerting.LocationUpdateResult, error) {
	applied, err := s.svc.UpdateLocation(ctx, s.caller(ctx), req.AlertID, req.Update)
	if err != nil {
		return nil, err
	}
	return &alerting.LocationUpdateResult{Applied: applied}, nil
}

func (s *Server) ResolveAlert(ctx context.Context, req *AlertRef) (*alerting.Snapshot, error) {
	return s.svc.Resolve(ctx, s.caller(ctx), req.AlertID)
}

func (s *Server) CancelAlert(ctx context.Context, req *AlertRef) (*alerting.Snapshot, error) {
	return s.svc.Cancel(ctx, s.caller(ctx), req.AlertID)
}

func Register(gs *grpc.Server, srv AlertServiceServer) {
	gs.RegisterService(&serviceDesc, srv)
}

func createAlertHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(alerting.CreateAlertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertServiceServer).CreateAlert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCreateAlert}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AlertServiceServer).CreateAlert(ctx, req.(*alerting.CreateAlertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func updateLocationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateLocationRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertServiceServer).UpdateLocation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodUpdateLocation}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AlertServiceServer).UpdateLocation(ctx, req.(*UpdateLocationRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// alertRefHandler serves the two methods that take only an alert id.
func alertRefHandler(method string, call func(AlertServiceServer, context.Context, *AlertRef) (*alerting.Snapshot, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(AlertRef)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AlertServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AlertServiceServer), ctx, req.(*AlertRef))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateAlert", Handler: createAlertHandler},
		{MethodName: "UpdateLocation", Handler: updateLocationHandler},
		{MethodName: "ResolveAlert", Handler: alertRefHandler(MethodResolveAlert, AlertServiceServer.ResolveAlert)},
		{MethodName: "CancelAlert", Handler: alertRefHandler(MethodCancelAlert, AlertServiceServer.CancelAlert)},
	},
	Metadata: "rapidsafe/v1/alert.proto",
}
