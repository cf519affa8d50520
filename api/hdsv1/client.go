package hdsv1

import (
	"context"

	"google.golang.org/grpc"
)

// FullMethod is the gRPC method carrying the bidirectional HDS stream.
const FullMethod = "/hds.v1.HealthDiscoveryService/StreamHealthCheck"

var streamDesc = grpc.StreamDesc{
	StreamName:    "StreamHealthCheck",
	ServerStreams: true,
	ClientStreams: true,
}

// Stream is one incarnation of the bidirectional health-check stream.
// Client-to-server frames are the handshake and periodic reports;
// server-to-client frames are specifiers.
type Stream interface {
	SendRequest(*HealthCheckRequest) error
	SendResponse(*EndpointHealthResponse) error
	Recv() (*HealthCheckSpecifier, error)
	CloseSend() error
}

// Client opens health-check streams against one server connection.
type Client struct {
	cc *grpc.ClientConn
}

// NewClient wraps an established gRPC connection.
func NewClient(cc *grpc.ClientConn) *Client {
	return &Client{cc: cc}
}

// StreamHealthCheck opens a new stream incarnation. The returned stream is
// only valid until the first Send or Recv error.
func (c *Client) StreamHealthCheck(ctx context.Context) (Stream, error) {
	cs, err := c.cc.NewStream(ctx, &streamDesc, FullMethod, grpc.CallContentSubtype(CodecName))
	if err != nil {
		return nil, err
	}
	return &stream{cs: cs}, nil
}

type stream struct {
	cs grpc.ClientStream
}

func (s *stream) SendRequest(req *HealthCheckRequest) error {
	return s.cs.SendMsg(&RequestOrResponse{HealthCheckRequest: req})
}

func (s *stream) SendResponse(resp *EndpointHealthResponse) error {
	return s.cs.SendMsg(&RequestOrResponse{EndpointHealthResponse: resp})
}

func (s *stream) Recv() (*HealthCheckSpecifier, error) {
	var spec HealthCheckSpecifier
	if err := s.cs.RecvMsg(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

func (s *stream) CloseSend() error {
	return s.cs.CloseSend()
}
