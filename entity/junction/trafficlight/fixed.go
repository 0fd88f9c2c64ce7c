package trafficlight

import (
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
)

// DefaultPeriod 相位切换周期（步数）
const DefaultPeriod = 10

// fixedTrafficLight 固定周期两相位信号灯控制器
// 功能：每period步将所有方向的红绿灯同时互换一次，并把结果写入各车道
// 说明：没有黄灯过渡、没有最短绿灯时间保证，只有固定周期的红绿互换；
// 同一轴线两个方向的相位始终相同，两条轴线的相位始终相反
type fixedTrafficLight struct {
	lanes  []entity.ILaneTrafficLightSetter // 车道数据
	period int32                            // 切换周期
	flips  int32                            // 已切换次数

	ok       bool // 信号灯状态，true为开启，false为关闭（保持当前相位不再切换）
	okBuffer bool // 信号灯状态buffer，用于交互式接口写入
}

// NewFixedTrafficLight 创建固定周期信号灯控制器
// 功能：初始化控制器并检查车道相位满足对称性要求
// 参数：lanes-受控车道（每个方向一条），period-切换周期，必须为正数
// 返回：初始化完成的信号灯控制器
func NewFixedTrafficLight(lanes []entity.ILaneTrafficLightSetter, period int32) *fixedTrafficLight {
	if period <= 0 {
		log.Panicf("traffic light period must be positive, got %d", period)
	}
	l := &fixedTrafficLight{
		lanes:    lanes,
		period:   period,
		ok:       true,
		okBuffer: true,
	}
	if err := l.Check(); err != nil {
		log.Panicf("init traffic light: %v", err)
	}
	return l
}

// Update 更新阶段，在所有车辆运动完成后调用
// 功能：当tick是周期的整数倍时切换所有相位
// 参数：tick-当前步数（已自增）
// 返回：本步是否发生了切换
func (l *fixedTrafficLight) Update(tick int32) bool {
	l.ok = l.okBuffer
	if !l.ok || tick%l.period != 0 {
		return false
	}
	l.FlipAll()
	return true
}

// FlipAll 将所有方向的相位红绿互换
func (l *fixedTrafficLight) FlipAll() {
	for _, lane := range l.lanes {
		lane.SetLight(lane.Light().Flip())
	}
	l.flips++
	log.Debugf("flip all lights, flips=%d", l.flips)
}

// Phase 获取指定方向的相位
func (l *fixedTrafficLight) Phase(dir entity.Direction) entity.LightPhase {
	for _, lane := range l.lanes {
		if lane.Direction() == dir {
			return lane.Light()
		}
	}
	log.Panicf("no lane for direction %v", dir)
	return entity.Red
}

// Phases 获取所有方向的相位，按方向枚举值索引
func (l *fixedTrafficLight) Phases() [entity.NumDirections]entity.LightPhase {
	var phases [entity.NumDirections]entity.LightPhase
	for _, lane := range l.lanes {
		phases[lane.Direction()] = lane.Light()
	}
	return phases
}

// Period 获取切换周期
func (l *fixedTrafficLight) Period() int32 {
	return l.period
}

// Flips 获取已切换次数
func (l *fixedTrafficLight) Flips() int32 {
	return l.flips
}

// SetOk 设置信号灯开关，下一次Update时生效
func (l *fixedTrafficLight) SetOk(ok bool) {
	l.okBuffer = ok
}

// Ok 获取信号灯开关状态
func (l *fixedTrafficLight) Ok() bool {
	return l.ok
}

// Restore 恢复相位、切换次数与开关状态（用于回滚）
// 说明：okBuffer保存的是外部写入的请求，不随回滚恢复
func (l *fixedTrafficLight) Restore(phases [entity.NumDirections]entity.LightPhase, flips int32, ok bool) {
	for _, lane := range l.lanes {
		lane.SetLight(phases[lane.Direction()])
	}
	l.flips = flips
	l.ok = ok
}

// Check 检查相位对称性
// 功能：南北两个方向相位相同、东西两个方向相位相同、两条轴线相位相反
// 返回：不满足时返回ErrAsymmetricPhase
func (l *fixedTrafficLight) Check() error {
	if len(l.lanes) != entity.NumDirections {
		return ErrMissingLane
	}
	p := l.Phases()
	if p[entity.North] != p[entity.South] || p[entity.East] != p[entity.West] || p[entity.North] == p[entity.East] {
		return ErrAsymmetricPhase
	}
	return nil
}
