package control

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/metrics"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
)

// #region client-struct

// Client wraps a gRPC connection to a control server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr. Without options the connection uses insecure credentials.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close shuts down the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// #endregion client-struct

// #region calls

func (c *Client) invokeState(ctx context.Context, method string, in any) (State, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return State{}, fmt.Errorf("%s: %w", method, err)
	}
	var st State
	if err := fromStruct(out, &st); err != nil {
		return State{}, fmt.Errorf("%s: %w", method, err)
	}
	return st, nil
}

// Start moves the remote engine to running.
func (c *Client) Start(ctx context.Context) (State, error) {
	return c.invokeState(ctx, "Start", &emptypb.Empty{})
}

// Pause moves the remote engine to idle.
func (c *Client) Pause(ctx context.Context) (State, error) {
	return c.invokeState(ctx, "Pause", &emptypb.Empty{})
}

// Step advances the remote engine n steps.
func (c *Client) Step(ctx context.Context, n int) (State, error) {
	return c.invokeState(ctx, "Step", wrapperspb.Int64(int64(n)))
}

// Reset returns the remote engine to idle at step zero.
func (c *Client) Reset(ctx context.Context) (State, error) {
	return c.invokeState(ctx, "Reset", &emptypb.Empty{})
}

// Snapshot fetches a full state snapshot.
func (c *Client) Snapshot(ctx context.Context) (sim.Snapshot, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, fullMethod("Snapshot"), &emptypb.Empty{}, out); err != nil {
		return sim.Snapshot{}, fmt.Errorf("Snapshot: %w", err)
	}
	var snap sim.Snapshot
	if err := fromStruct(out, &snap); err != nil {
		return sim.Snapshot{}, fmt.Errorf("Snapshot: %w", err)
	}
	return snap, nil
}

// Analyze fetches the remote run analysis.
func (c *Client) Analyze(ctx context.Context) (metrics.Analysis, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, fullMethod("Analyze"), &emptypb.Empty{}, out); err != nil {
		return metrics.Analysis{}, fmt.Errorf("Analyze: %w", err)
	}
	var a metrics.Analysis
	if err := fromStruct(out, &a); err != nil {
		return metrics.Analysis{}, fmt.Errorf("Analyze: %w", err)
	}
	return a, nil
}

// #endregion calls
