package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
)

// MaxStepsPerCall caps a single Step request.
const MaxStepsPerCall = 100000

// #region server

// Server implements ControlServer on top of a Session.
type Server struct {
	session *Session
	logger  *zap.Logger
}

// NewServer creates a Server. A nil logger discards output.
func NewServer(session *Session, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{session: session, logger: logger}
}

var _ ControlServer = (*Server)(nil)

// #endregion server

// #region handlers

func (s *Server) Start(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply("Start", s.session.Start())
}

func (s *Server) Pause(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply("Pause", s.session.Pause())
}

func (s *Server) Step(ctx context.Context, in *wrapperspb.Int64Value) (*structpb.Struct, error) {
	n := in.GetValue()
	if n < 1 || n > MaxStepsPerCall {
		return nil, status.Errorf(codes.InvalidArgument, "step count must be in [1, %d], got %d", MaxStepsPerCall, n)
	}
	return s.reply("Step", s.session.Step(int(n)))
}

func (s *Server) Reset(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply("Reset", s.session.Reset())
}

func (s *Server) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply("Snapshot", s.session.Snapshot())
}

func (s *Server) Analyze(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return s.reply("Analyze", s.session.Analyze())
}

func (s *Server) reply(method string, v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		s.logger.Error("encode reply", zap.String("method", method), zap.Error(err))
		return nil, toStatus(err)
	}
	s.logger.Debug("control call", zap.String("method", method))
	return out, nil
}

// #endregion handlers

// #region encoding

// toStruct maps any JSON-encodable value onto a structpb.Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("to struct: %w", err)
	}
	return out, nil
}

// fromStruct decodes a structpb.Struct into v through JSON.
func fromStruct(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("from struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return nil
}

// toStatus maps domain errors onto gRPC codes.
func toStatus(err error) error {
	if errors.Is(err, config.ErrInvalidConfiguration) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// #endregion encoding
