package task

import (
	"context"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/intersection-sim/clock"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/rpcutil"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func rpcClient[Req, Res any](base, service, method string) *connect.Client[Req, Res] {
	return connect.NewClient[Req, Res](http.DefaultClient, base+"/"+service+"/"+method, rpcutil.ClientOptions()...)
}

// 在sidecar上运行仿真，同时并发发送RPC请求
func TestRunWithSidecarUnderConcurrentRPC(t *testing.T) {
	addr := freeAddr(t)
	sidecar := syncer.NewSidecar(SelfName, addr, "")
	c := testConfig(300, 0)
	c.Control.Step.Interval = 0.001
	ctx, err := NewContext("job0", c, sidecar, nil, nil, addr, true)
	require.NoError(t, err)

	base := "http://" + addr
	spawn := rpcClient[junction.SpawnRequest, junction.SpawnResponse](base, junction.ServiceName, "Spawn")
	get := rpcClient[junction.GetStateRequest, junction.GetStateResponse](base, junction.ServiceName, "GetState")
	forecast := rpcClient[junction.ForecastRequest, junction.ForecastResponse](base, junction.ServiceName, "Forecast")
	now := rpcClient[clock.NowRequest, clock.NowResponse](base, clock.ServiceName, "Now")

	// 运行之前的请求在第一步的准备阶段执行
	res, err := spawn.CallUnary(context.Background(), connect.NewRequest(&junction.SpawnRequest{Direction: "south", Route: "straight"}))
	require.NoError(t, err)
	require.True(t, res.Msg.Queued)

	var done atomic.Bool
	var ok atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; !done.Load(); i++ {
				rctx, cancel := context.WithTimeout(context.Background(), time.Second)
				var err error
				switch (g + i) % 4 {
				case 0, 1:
					_, err = spawn.CallUnary(rctx, connect.NewRequest(&junction.SpawnRequest{}))
				case 2:
					var r *connect.Response[junction.GetStateResponse]
					r, err = get.CallUnary(rctx, connect.NewRequest(&junction.GetStateRequest{}))
					if err == nil {
						_, ferr := junction.FromState(r.Msg.State, nil)
						assert.NoError(t, ferr)
					}
				case 3:
					if i%2 == 0 {
						_, err = forecast.CallUnary(rctx, connect.NewRequest(&junction.ForecastRequest{Steps: 3}))
					} else {
						_, err = now.CallUnary(rctx, connect.NewRequest(&clock.NowRequest{}))
					}
				}
				cancel()
				// 仿真结束后sidecar关闭，之后的请求失败
				if err == nil {
					ok.Add(1)
				}
			}
		}(g)
	}

	require.NoError(t, ctx.Run())
	done.Store(true)
	wg.Wait()

	j := ctx.Intersection()
	assert.Equal(t, int32(300), j.Tick())
	assert.Positive(t, ok.Load())
	assert.Positive(t, j.State().NextID)
	assert.NoError(t, j.Check())
}
