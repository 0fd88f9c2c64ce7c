package clock

import (
	"fmt"
	"sync/atomic"
)

// Clock 仿真时钟
// 功能：记录路口已执行的步数（tick），单调递增
// 说明：步数只用于决定信号灯何时切换，不参与其他计算；步与步之间的实际时间间隔由外部驱动循环决定
type Clock struct {
	START_STEP int32 // 起始步
	Step       int32 // 当前步数

	published atomic.Int32 // 最近一次发布的步数，供RPC协程读取
}

// New 创建新的时钟实例
// 参数：start-起始步数
// 返回：初始化完成的时钟实例
func New(start int32) *Clock {
	c := &Clock{START_STEP: start}
	c.Init()
	return c
}

// Init 重置时钟到起始步
func (c *Clock) Init() {
	c.Step = c.START_STEP
	c.Publish()
}

// Publish 发布当前步数，在两步之间由驱动仿真的协程调用
func (c *Clock) Publish() {
	c.published.Store(c.Step)
}

// Published 获取最近一次发布的步数（线程安全）
func (c *Clock) Published() int32 {
	return c.published.Load()
}

// Next 步数加一
// 返回：自增后的步数
func (c *Clock) Next() int32 {
	c.Step++
	return c.Step
}

// Elapsed 获取从起始步开始已经执行的步数
func (c *Clock) Elapsed() int32 {
	return c.Step - c.START_STEP
}

// String 获取时钟的字符串表示
func (c *Clock) String() string {
	return fmt.Sprintf("tick %06d", c.Step)
}
