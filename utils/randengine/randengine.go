// 随机数引擎，包装了golang.org/x/exp/rand，提供生成车辆所需的随机数方法
package randengine

import (
	"flag"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成功能，相同种子得到相同的车辆生成序列
// 说明：不带Safe后缀的方法非线程安全，只应在驱动仿真的协程中使用
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true
// 参数：p-返回true的概率（0.0到1.0之间）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// PTrueSafe 以指定概率返回true（线程安全）
func (e *Engine) PTrueSafe(p float64) bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.PTrue(p)
}

// IntnSafe 返回[0, n)内的随机整数（线程安全）
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}

// Locked 线程安全的随机数来源
// 功能：将Intn转发到IntnSafe，供RPC处理协程等并发调用方使用
type Locked struct {
	e *Engine
}

// NewLocked 创建线程安全的随机数来源
func NewLocked(seed uint64) *Locked {
	return &Locked{e: New(seed)}
}

func (l *Locked) Intn(n int) int {
	return l.e.IntnSafe(n)
}
