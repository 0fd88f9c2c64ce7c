package junction

import (
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
)

// 依赖倒置，表达junction对信号灯实现的接口需求

// 给交通参与者提供的信控读取接口
type ITrafficLightGetter interface {
	Phase(dir entity.Direction) entity.LightPhase    // 指定方向的相位
	Phases() [entity.NumDirections]entity.LightPhase // 所有方向的相位
	Period() int32                                   // 切换周期
	Flips() int32                                    // 已切换次数
	Ok() bool                                        // 当前信控开关情况
}

// 信号灯接口
type ITrafficLight interface {
	ITrafficLightGetter
	Update(tick int32) bool // 更新阶段，车辆运动之后调用，返回是否切换

	FlipAll()                                                                     // 所有相位红绿互换
	SetOk(ok bool)                                                                // 设置信控开关情况（true信控工作|false信控失效-保持当前相位）
	Restore(phases [entity.NumDirections]entity.LightPhase, flips int32, ok bool) // 回滚相位、切换次数与开关状态
	Check() error                                                                 // 检查相位对称性
}

// RandSource 随机数来源，用于生成车辆时均匀选择方向与路线
type RandSource interface {
	Intn(n int) int
}
