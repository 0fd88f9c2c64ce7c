package task

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/tsinghua-fib-lab/intersection-sim/utils/output"
	"github.com/tsinghua-fib-lab/intersection-sim/view"
)

const (
	SelfName = "intersection" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 10, "心跳日志间隔步数")
)

// 暂停时轮询指令的最长间隔
const pausePollInterval = 100 * time.Millisecond

// handle 执行一条视图指令
func (ctx *Context) handle(cmd view.Command) {
	switch cmd.Kind {
	case view.CommandQuit:
		log.Info("quit requested")
		ctx.Stop()
	case view.CommandPause:
		ctx.paused = !ctx.paused
		log.Infof("paused: %v", ctx.paused)
	case view.CommandSpawn:
		if v, ok := ctx.intersection.Spawn(cmd.Direction); ok {
			log.Debugf("spawn %v", v)
		} else {
			log.Debugf("entry of %v lane is occupied", cmd.Direction)
		}
	}
}

// drain 执行所有已到达的视图指令，不阻塞
func (ctx *Context) drain() {
	if ctx.viewer == nil {
		return
	}
	for {
		select {
		case cmd, ok := <-ctx.viewer.Commands():
			if !ok {
				// 视图已关闭
				ctx.viewer = nil
				ctx.Stop()
				return
			}
			ctx.handle(cmd)
		default:
			return
		}
	}
}

// waitWhilePaused 暂停期间阻塞等待视图指令，直到继续或退出
func (ctx *Context) waitWhilePaused() {
	for ctx.paused && !ctx.closed.Load() && ctx.viewer != nil {
		select {
		case cmd, ok := <-ctx.viewer.Commands():
			if !ok {
				ctx.viewer = nil
				ctx.Stop()
				return
			}
			ctx.handle(cmd)
		case <-time.After(pausePollInterval):
		}
		if ctx.viewer != nil {
			ctx.viewer.Draw(ctx.intersection.State(), ctx.paused)
		}
	}
}

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始前处理外部输入
// 算法说明：
// 1. 执行视图指令，暂停时在此等待
// 2. 执行RPC写请求（生成车辆、信号灯开关）
// 3. 以配置的概率随机生成一辆车，入口被占用则放弃
// 4. 心跳日志：定期输出各车道的信号灯与车辆数
// 说明：准备阶段sidecar持有写锁，没有RPC处理函数在运行
func (ctx *Context) prepare() {
	ctx.drain()
	ctx.waitWhilePaused()
	if ctx.closed.Load() {
		return
	}

	j := ctx.intersection
	for _, r := range ctx.service.Apply() {
		if r.Spawned {
			log.Debugf("rpc spawn %v", r.Vehicle)
		} else {
			log.Debugf("rpc spawn: entry of %v lane is occupied", r.Direction)
		}
	}
	if ctx.rng.PTrue(ctx.runtimeConfig.C.SpawnProbability) {
		if v, ok := j.SpawnRandom(); ok {
			log.Debugf("spawn %v", v)
		}
	}

	if *heartBeatInterval > 0 && j.Tick()%int32(*heartBeatInterval) == 0 {
		log.Infof("STEP: %s", j.State().Summary())
	}
}

// update 更新阶段，每步执行一次
// 功能：推进路口一步，发布快照，写入统计并刷新视图
// 返回：路口不变量被破坏或输出失败时返回错误
// 说明：更新阶段RPC处理函数可能并发运行，它们只访问service的队列与快照
func (ctx *Context) update() error {
	j := ctx.intersection
	if err := j.Step(); err != nil {
		return fmt.Errorf("step %d: %w", j.Tick()+1, err)
	}
	ctx.service.Publish()
	st := ctx.service.Snapshot().State
	rec := output.NewStepRecord(ctx.runID, ctx.job, st, j.LastStep())
	if err := ctx.recorder.Record(context.Background(), rec); err != nil {
		return fmt.Errorf("record step %d: %w", st.Tick, err)
	}
	if ctx.viewer != nil {
		ctx.viewer.Draw(st, ctx.paused)
	}
	return nil
}

// Run 运行
// 功能：执行配置的总步数，步与步之间按配置的时间间隔等待
// 返回：路口或输出出错时返回错误，此时已执行的步数保持不变
func (ctx *Context) Run() (err error) {
	defer func() {
		if cerr := ctx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	rc := ctx.runtimeConfig
	if ctx.viewer != nil {
		ctx.viewer.Draw(ctx.intersection.State(), ctx.paused)
	}
	// init syncer
	if ctx.sidecar != nil {
		ctx.sidecar.Step(false)
	}
	for i := int32(0); i < rc.Total; i++ {
		start := time.Now()
		ctx.prepare()
		if ctx.closed.Load() {
			break
		}
		// 通知准备阶段完成
		if ctx.sidecar != nil {
			ctx.sidecar.NotifyStepReady()
		}
		if err := ctx.update(); err != nil {
			return err
		}
		log.Debugf("step %d: update complete", ctx.intersection.Tick())
		close := false
		if ctx.sidecar != nil {
			close = ctx.sidecar.Step(i+1 >= rc.Total)
		}
		if close || ctx.closed.Load() {
			break
		}
		if wait := rc.Interval - time.Since(start); wait > 0 && i+1 < rc.Total {
			time.Sleep(wait)
		}
	}
	log.Infof("engine complete at tick %d, %d active vehicles", ctx.intersection.Tick(), ctx.intersection.ActiveCount())
	return nil
}
