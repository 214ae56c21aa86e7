package control

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/config"
	"github.com/danielpatrickdp/symbol-drift/go-controller/internal/sim"
)

// #region helpers

func newSession(t *testing.T) *Session {
	t.Helper()
	cfg := config.Default()
	cfg.Seed = 3
	e, err := sim.New(cfg, sim.WithClock(func() time.Time { return time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC) }))
	require.NoError(t, err)
	return NewSession(e)
}

// startServer serves a Server over an in-memory listener and returns a
// connected client. Everything is torn down in t.Cleanup.
func startServer(t *testing.T, session *Session) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, NewServer(session, nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(lis)
	}()

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		srv.Stop()
		<-done
	})
	return client
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// #endregion helpers

// #region rpc-tests

func TestControlLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("rpc", func(t *testing.T) {
		client := startServer(t, newSession(t))
		ctx := ctxT(t)

		st, err := client.Start(ctx)
		require.NoError(t, err)
		assert.Equal(t, State{Status: sim.StatusRunning, Step: 0}, st)

		st, err = client.Step(ctx, 120)
		require.NoError(t, err)
		assert.Equal(t, 120, st.Step)

		st, err = client.Pause(ctx)
		require.NoError(t, err)
		assert.Equal(t, sim.StatusIdle, st.Status)

		snap, err := client.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, 120, snap.Step)
		assert.Len(t, snap.Shifts, 1)
		assert.Len(t, snap.Drift, 100)
		assert.LessOrEqual(t, len(snap.Communications), 30)

		a, err := client.Analyze(ctx)
		require.NoError(t, err)
		assert.Len(t, a.Symbols, 6)

		st, err = client.Reset(ctx)
		require.NoError(t, err)
		assert.Equal(t, State{Status: sim.StatusIdle, Step: 0}, st)

		snap, err = client.Snapshot(ctx)
		require.NoError(t, err)
		assert.Empty(t, snap.Drift)
		assert.Empty(t, snap.Shifts)
	})
}

func TestSnapshotSurvivesTheWire(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("rpc", func(t *testing.T) {
		session := newSession(t)
		session.Step(75)
		client := startServer(t, session)

		remote, err := client.Snapshot(ctxT(t))
		require.NoError(t, err)

		local := session.Snapshot()
		if diff := cmp.Diff(local, remote); diff != "" {
			t.Errorf("snapshot changed over the wire (-local +remote):\n%s", diff)
		}
	})
}

func TestStepRejectsBadCounts(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("rpc", func(t *testing.T) {
		client := startServer(t, newSession(t))
		for _, n := range []int{0, -3, MaxStepsPerCall + 1} {
			_, err := client.Step(ctxT(t), n)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err), "n=%d", n)
		}
	})
}

// #endregion rpc-tests

// #region session-tests

func TestSessionSerializesConcurrentCallers(t *testing.T) {
	session := newSession(t)
	session.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				session.Tick()
				session.Step(1)
				_ = session.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, session.State().Step)
	assert.Len(t, session.Snapshot().Drift, 100)
}

func TestSessionDrivenByTicker(t *testing.T) {
	defer goleak.VerifyNone(t)

	session := newSession(t)
	session.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	d := &sim.Driver{Interval: time.Millisecond, Target: session}
	require.NoError(t, d.Run(ctx))
	assert.Positive(t, session.State().Step)
}

func TestToStatus(t *testing.T) {
	err := toStatus(config.ErrInvalidConfiguration)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Equal(t, codes.Internal, status.Code(toStatus(assert.AnError)))
}

// #endregion session-tests
