package server

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "whispervoice.v1.Transcriber"

const (
	methodInitialize = "/" + ServiceName + "/Initialize"
	methodFree       = "/" + ServiceName + "/Free"
	methodTranscribe = "/" + ServiceName + "/Transcribe"
)

// InitializeRequest loads a model. An empty ModelPath selects the model the
// server was configured with.
type InitializeRequest struct {
	ModelPath string `json:"model_path,omitempty"`
}

type InitializeResponse struct {
	Token int64 `json:"token"`
}

type FreeRequest struct {
	Token int64 `json:"token"`
}

type FreeResponse struct {
	Released bool `json:"released"`
}

// TranscribeRequest carries audio either as float32 samples or as
// little-endian PCM16 bytes, never both.
type TranscribeRequest struct {
	Token   int64     `json:"token"`
	Samples []float32 `json:"samples,omitempty"`
	PCM16   []byte    `json:"pcm16,omitempty"`
}

// TranscribeResponse reports the transcript together with the outcome tag
// ("ok", "no_context", "engine_failure").
type TranscribeResponse struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	Outcome   string `json:"outcome"`
	Status    int    `json:"status,omitempty"`
	Segments  int    `json:"segments,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

// TranscriberServer is the server API for the Transcriber service.
type TranscriberServer interface {
	Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error)
	Free(context.Context, *FreeRequest) (*FreeResponse, error)
	Transcribe(context.Context, *TranscribeRequest) (*TranscribeResponse, error)
}

// RegisterTranscriberServer registers srv on s.
func RegisterTranscriberServer(s grpc.ServiceRegistrar, srv TranscriberServer) {
	s.RegisterService(&Transcriber_ServiceDesc, srv)
}

// Transcriber_ServiceDesc describes the Transcriber service for grpc.Server.
var Transcriber_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TranscriberServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Initialize", Handler: initializeHandler},
		{MethodName: "Free", Handler: freeHandler},
		{MethodName: "Transcribe", Handler: transcribeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "whispervoice/v1/transcriber",
}

func initializeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(InitializeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranscriberServer).Initialize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodInitialize}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TranscriberServer).Initialize(ctx, req.(*InitializeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func freeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FreeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranscriberServer).Free(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodFree}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TranscriberServer).Free(ctx, req.(*FreeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func transcribeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(TranscribeRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TranscriberServer).Transcribe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodTranscribe}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TranscriberServer).Transcribe(ctx, req.(*TranscribeRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Client is a thin client for the Transcriber service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Initialize(ctx context.Context, in *InitializeRequest, opts ...grpc.CallOption) (*InitializeResponse, error) {
	out := new(InitializeResponse)
	if err := c.cc.Invoke(ctx, methodInitialize, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Free(ctx context.Context, in *FreeRequest, opts ...grpc.CallOption) (*FreeResponse, error) {
	out := new(FreeResponse)
	if err := c.cc.Invoke(ctx, methodFree, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Transcribe(ctx context.Context, in *TranscribeRequest, opts ...grpc.CallOption) (*TranscribeResponse, error) {
	out := new(TranscribeResponse)
	if err := c.cc.Invoke(ctx, methodTranscribe, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
