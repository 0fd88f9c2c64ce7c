package task

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/config"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/output"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/randengine"
	"github.com/tsinghua-fib-lab/intersection-sim/view"
)

// waitForServerReady 等待服务器就绪
// 功能：通过HTTP请求检查服务器是否已经启动并可以响应
// 参数：addr-服务器地址，retryCount-重试次数，interval-重试间隔
// 返回：错误信息，如果服务器就绪则返回nil
func waitForServerReady(addr string, retryCount int, interval time.Duration) error {
	client := &http.Client{
		Timeout: interval,
	}
	for range retryCount {
		resp, err := client.Get(addr)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("server `%v` did not become ready after %d retries", addr, retryCount)
}

// Viewer 终端视图接口，由*view.View实现
type Viewer interface {
	Commands() <-chan view.Command        // 按键产生的指令，关闭视图时channel被关闭
	Draw(st *junction.State, paused bool) // 绘制一帧
}

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态
// 说明：路口只在Run所在的协程中被修改；RPC写请求进入service的队列，在准备阶段执行，
// RPC读请求读取每步结束后发布的快照；视图指令通过channel传入
type Context struct {
	// 任务名
	job string
	// 运行ID，写入每条输出文档
	runID string
	// 关闭指令
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	// 是否暂停
	paused bool

	// 辅助程序，处理分布式模式下相关调用，包括与syncer、其他服务的交互；为nil时不进行同步
	sidecar *syncer.Sidecar
	// sidecar close channel
	sidecarCloseCh chan struct{}
	// 是否启动了sidecar服务
	serving bool

	// 十字路口
	intersection *junction.Intersection
	// 路口RPC服务
	service *junction.Service
	// 随机数引擎
	rng *randengine.Engine
	// 运行时配置
	runtimeConfig *config.RuntimeConfig
	// 统计输出
	recorder output.Recorder
	// 终端视图，可为nil
	viewer Viewer
}

// NewContext 创建新的仿真任务上下文
// 功能：初始化路口、随机数引擎与输出，并把RPC服务注册到sidecar
// 参数：
//   - job: 任务名称
//   - c: 配置对象
//   - sidecar: sidecar实例，为nil时不提供RPC服务
//   - recorder: 统计输出，为nil时不输出
//   - viewer: 终端视图，为nil时不显示
//   - listenAddr: sidecar监听地址，启动sidecar服务时用于等待服务就绪
//   - startSidecarServe: 是否启动sidecar服务
//
// 返回：初始化完成的Context实例与错误信息
// 算法说明：
// 1. 校验配置
// 2. 以配置的种子创建随机数引擎与路口，按配置关闭信号灯
// 3. 注册路口与时钟的RPC服务
// 4. 启动sidecar服务（如果需要）并等待服务就绪
func NewContext(
	job string,
	c config.Config,
	sidecar *syncer.Sidecar,
	recorder output.Recorder,
	viewer Viewer,
	listenAddr string,
	startSidecarServe bool,
) (*Context, error) {
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = output.NopRecorder{}
	}
	ctx := &Context{
		job:            job,
		runID:          uuid.NewString(),
		sidecar:        sidecar,
		sidecarCloseCh: make(chan struct{}),
		rng:            randengine.New(c.Control.Seed),
		runtimeConfig:  rc,
		recorder:       recorder,
		viewer:         viewer,
	}
	ctx.intersection = junction.New(ctx.rng)
	if c.Control.DisableLight {
		ctx.intersection.SetLightOk(false)
	}
	// RPC处理协程使用独立的线程安全随机数来源
	ctx.service = junction.NewService(ctx.intersection, randengine.NewLocked(c.Control.Seed+1))
	log.Infof("run %s: %d steps, interval %v, spawn probability %v",
		ctx.runID, rc.Total, rc.Interval, rc.C.SpawnProbability)

	if ctx.sidecar != nil {
		ctx.intersection.Clock().Register(ctx.sidecar)
		ctx.service.Register(ctx.sidecar)

		// sidecar协程，用于提供RPC服务
		if startSidecarServe {
			ctx.serving = true
			go func() {
				err := ctx.sidecar.Serve()
				if err != nil {
					log.Panicf("failed to serve: %v", err)
				}
				ctx.sidecarCloseCh <- struct{}{}
			}()
			if err := waitForServerReady(serverURL(listenAddr), 50, 100*time.Millisecond); err != nil {
				ctx.Close()
				return nil, err
			}
		}
	}
	return ctx, nil
}

// serverURL 将监听地址转换为本机可访问的URL
func serverURL(listenAddr string) string {
	if strings.HasPrefix(listenAddr, ":") {
		listenAddr = "localhost" + listenAddr
	}
	return "http://" + listenAddr + "/"
}

func (ctx *Context) RunID() string {
	return ctx.runID
}

func (ctx *Context) Intersection() *junction.Intersection {
	return ctx.intersection
}

func (ctx *Context) Service() *junction.Service {
	return ctx.service
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// Stop 请求在当前步结束后退出
func (ctx *Context) Stop() {
	ctx.closed.Store(true)
}

// Close 关闭输出与sidecar，可重复调用
func (ctx *Context) Close() error {
	ctx.closeOnce.Do(func() {
		ctx.closed.Store(true)
		if err := ctx.recorder.Close(context.Background()); err != nil {
			ctx.closeErr = fmt.Errorf("close recorder: %w", err)
		}
		if ctx.serving {
			ctx.sidecar.Close()
			// wait for graceful stop
			<-ctx.sidecarCloseCh
		}
	})
	return ctx.closeErr
}
