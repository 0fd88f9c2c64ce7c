package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/rpcutil"
)

// ServiceName 时钟RPC服务名
const ServiceName = "intersection.v1.ClockService"

type NowRequest struct{}

type NowResponse struct {
	Step    int32 `json:"step"`    // 当前步数
	Elapsed int32 `json:"elapsed"` // 已执行的步数
}

// Register 将ClockService注册到sidecar
// 功能：注册时钟服务的RPC处理器到sidecar中
// 参数：sidecar-sidecar实例
func (c *Clock) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(ServiceName, c.NewHandler)
}

// NewHandler 创建时钟服务的http.Handler
func (c *Clock) NewHandler(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
	svc := rpcutil.NewService(ServiceName)
	svc.Handle(svc.Procedure("Now"), connect.NewUnaryHandler(svc.Procedure("Now"), c.Now, rpcutil.HandlerOptions(opts...)...))
	return svc.Pattern(), svc.Handler()
}

// Now 获取当前仿真步数
// 功能：RPC接口，返回最近一次发布的步数
// 说明：RPC在仿真步执行期间并发调用，只读取发布值，不读取正在自增的Step
func (c *Clock) Now(ctx context.Context, in *connect.Request[NowRequest]) (*connect.Response[NowResponse], error) {
	step := c.Published()
	return connect.NewResponse(&NowResponse{
		Step:    step,
		Elapsed: step - c.START_STEP,
	}), nil
}
