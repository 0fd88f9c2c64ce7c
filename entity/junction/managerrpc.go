package junction

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"connectrpc.com/connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/rpcutil"
)

// ServiceName 路口RPC服务名
const ServiceName = "intersection.v1.IntersectionService"

// MaxPendingSpawns 等待执行的生成请求上限
const MaxPendingSpawns = 64

var (
	ErrTooManyPendingSpawns = errors.New("too many pending spawn requests")
)

type GetStateRequest struct{}

type GetStateResponse struct {
	State    *State    `json:"state"`
	LastStep StepStats `json:"last_step"`
}

type SpawnRequest struct {
	Direction string `json:"direction,omitempty"` // 为空则随机选择
	Route     string `json:"route,omitempty"`     // 为空则随机选择
}

type SpawnResponse struct {
	Queued    bool             `json:"queued"`     // 请求已进入队列，在下一步之前执行
	Direction entity.Direction `json:"direction"`  // 最终确定的方向
	Route     entity.Route     `json:"route"`      // 最终确定的路线
	ApplyTick int32            `json:"apply_tick"` // 请求在该步执行之前生效
}

type ForecastRequest struct {
	Steps int32 `json:"steps"`
}

type ForecastResponse struct {
	States []*State `json:"states"`
}

type SetTrafficLightStatusRequest struct {
	Ok bool `json:"ok"`
}

type SetTrafficLightStatusResponse struct{}

type spawnRequest struct {
	dir   entity.Direction
	route entity.Route
}

// SpawnResult 生成请求的执行结果
type SpawnResult struct {
	Direction entity.Direction
	Route     entity.Route
	Spawned   bool
	Vehicle   vehicle.Vehicle
}

// Service 路口RPC服务
// 功能：RPC处理协程与驱动仿真的协程之间的缓冲层
// 说明：sidecar只在准备阶段持有写锁，更新阶段（路口执行Step时）RPC处理函数持读锁并发执行，
// 因此处理函数不能直接访问路口：
//   - 写请求（生成车辆、信号灯开关）进入互斥锁保护的队列，由Apply在准备阶段执行
//   - 读请求只读取Publish在每步结束后发布的快照
//   - 随机选择方向与路线使用独立的线程安全随机数来源
type Service struct {
	j   *Intersection
	rng RandSource // 必须线程安全

	pendingMtx     sync.Mutex
	pendingSpawns  []spawnRequest
	pendingLightOk *bool

	snapshot atomic.Pointer[GetStateResponse]
}

// NewService 创建路口RPC服务并发布初始快照
// 参数：j-路口，rng-线程安全的随机数来源（可为nil，此时生成请求必须指定方向与路线）
func NewService(j *Intersection, rng RandSource) *Service {
	s := &Service{
		j:             j,
		rng:           rng,
		pendingSpawns: make([]spawnRequest, 0),
	}
	s.Publish()
	return s
}

// Register 将路口服务注册到sidecar
// 功能：将路口注册为RPC服务，提供远程调用接口
// 参数：sidecar-同步器侧车实例
func (s *Service) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(ServiceName, s.NewHandler)
}

// NewHandler 创建路口RPC服务的http.Handler
// 参数：opts-connect handler选项
// 返回：服务路径前缀与handler
func (s *Service) NewHandler(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
	opts = rpcutil.HandlerOptions(opts...)
	svc := rpcutil.NewService(ServiceName)
	svc.Handle(svc.Procedure("GetState"), connect.NewUnaryHandler(svc.Procedure("GetState"), s.GetState, opts...))
	svc.Handle(svc.Procedure("Spawn"), connect.NewUnaryHandler(svc.Procedure("Spawn"), s.Spawn, opts...))
	svc.Handle(svc.Procedure("Forecast"), connect.NewUnaryHandler(svc.Procedure("Forecast"), s.Forecast, opts...))
	svc.Handle(svc.Procedure("SetTrafficLightStatus"), connect.NewUnaryHandler(svc.Procedure("SetTrafficLightStatus"), s.SetTrafficLightStatus, opts...))
	return svc.Pattern(), svc.Handler()
}

// Publish 发布路口当前状态，供读请求使用
// 说明：只能由驱动仿真的协程在两步之间调用
func (s *Service) Publish() {
	s.snapshot.Store(&GetStateResponse{
		State:    s.j.State(),
		LastStep: s.j.LastStep(),
	})
	s.j.clock.Publish()
}

// Apply 执行队列中的写请求
// 功能：按到达顺序生成车辆（入口被占用则放弃），再写入信号灯开关
// 返回：各生成请求的执行结果
// 说明：只能由驱动仿真的协程在准备阶段调用
func (s *Service) Apply() []SpawnResult {
	s.pendingMtx.Lock()
	spawns := s.pendingSpawns
	lightOk := s.pendingLightOk
	s.pendingSpawns = make([]spawnRequest, 0)
	s.pendingLightOk = nil
	s.pendingMtx.Unlock()

	results := make([]SpawnResult, 0, len(spawns))
	for _, req := range spawns {
		v, ok := s.j.SpawnRoute(req.dir, req.route)
		results = append(results, SpawnResult{Direction: req.dir, Route: req.route, Spawned: ok, Vehicle: v})
	}
	if lightOk != nil {
		s.j.SetLightOk(*lightOk)
	}
	return results
}

// Pending 等待执行的生成请求数
func (s *Service) Pending() int {
	s.pendingMtx.Lock()
	defer s.pendingMtx.Unlock()
	return len(s.pendingSpawns)
}

// Snapshot 获取最近一次发布的状态
func (s *Service) Snapshot() *GetStateResponse {
	return s.snapshot.Load()
}

// GetState RPC接口：获取路口状态
// 功能：返回最近一次发布的状态快照与该步的统计
func (s *Service) GetState(
	ctx context.Context, in *connect.Request[GetStateRequest],
) (*connect.Response[GetStateResponse], error) {
	return connect.NewResponse(s.snapshot.Load()), nil
}

// Spawn RPC接口：生成车辆
// 功能：确定方向与路线（未指定的项随机选择）后放入队列，在下一步之前执行
// 返回：确定后的方向与路线；入口被占用时请求在执行时被放弃，不视为错误
func (s *Service) Spawn(
	ctx context.Context, in *connect.Request[SpawnRequest],
) (*connect.Response[SpawnResponse], error) {
	req := in.Msg
	if s.rng == nil && (req.Direction == "" || req.Route == "") {
		return nil, connect.NewError(connect.CodeFailedPrecondition, ErrNoRandomSource)
	}
	var dir entity.Direction
	var err error
	if req.Direction == "" {
		dir = entity.Directions[s.rng.Intn(entity.NumDirections)]
	} else if dir, err = entity.ParseDirection(req.Direction); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	var route entity.Route
	if req.Route == "" {
		route = entity.Routes[s.rng.Intn(entity.NumRoutes)]
	} else if route, err = entity.ParseRoute(req.Route); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	s.pendingMtx.Lock()
	defer s.pendingMtx.Unlock()
	if len(s.pendingSpawns) >= MaxPendingSpawns {
		return nil, connect.NewError(connect.CodeResourceExhausted, ErrTooManyPendingSpawns)
	}
	s.pendingSpawns = append(s.pendingSpawns, spawnRequest{dir: dir, route: route})
	return connect.NewResponse(&SpawnResponse{
		Queued:    true,
		Direction: dir,
		Route:     route,
		ApplyTick: s.snapshot.Load().State.Tick + 1,
	}), nil
}

// Forecast RPC接口：从最近一次发布的状态出发预测后续若干步
func (s *Service) Forecast(
	ctx context.Context, in *connect.Request[ForecastRequest],
) (*connect.Response[ForecastResponse], error) {
	states, err := ForecastFrom(s.snapshot.Load().State, int(in.Msg.Steps))
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&ForecastResponse{States: states}), nil
}

// SetTrafficLightStatus RPC接口：设置信号灯开关
// 说明：true表示正常工作，false表示失效（保持当前相位不再切换）；在下一步之前写入，该步生效
func (s *Service) SetTrafficLightStatus(
	ctx context.Context, in *connect.Request[SetTrafficLightStatusRequest],
) (*connect.Response[SetTrafficLightStatusResponse], error) {
	ok := in.Msg.Ok
	s.pendingMtx.Lock()
	s.pendingLightOk = &ok
	s.pendingMtx.Unlock()
	return connect.NewResponse(&SetTrafficLightStatusResponse{}), nil
}
