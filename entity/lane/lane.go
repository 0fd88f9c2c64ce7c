package lane

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
)

// Lane 车道
// 功能：按方向分组的信号灯相位与车辆列表
// 说明：车辆在生成时进入对应方向的车道，转向后也不会更换车道（路线只影响坐标更新规则）；
// 车辆列表按进入顺序排列，该顺序是同一步内争抢格子的先后顺序
type Lane struct {
	direction entity.Direction
	light     entity.LightPhase  // 车道信号灯相位，由信号灯控制器写入
	vehicles  []*vehicle.Vehicle // 车道上的车辆（包括上一步刚驶出、尚未移除的车辆）
}

// New 创建车道
// 参数：direction-车道方向，light-初始信号灯相位
func New(direction entity.Direction, light entity.LightPhase) *Lane {
	return &Lane{
		direction: direction,
		light:     light,
		vehicles:  make([]*vehicle.Vehicle, 0),
	}
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane{Dir=%v, Light=%v, Vehicles=%d}", l.direction, l.light, len(l.vehicles))
}

// Direction 获取车道方向
func (l *Lane) Direction() entity.Direction {
	return l.direction
}

// Light 获取信号灯相位
func (l *Lane) Light() entity.LightPhase {
	return l.light
}

// SetLight 写入信号灯相位
func (l *Lane) SetLight(phase entity.LightPhase) {
	l.light = phase
}

// Add 将车辆加入车道末尾
// 功能：追加车辆，车辆方向必须与车道一致
func (l *Lane) Add(v *vehicle.Vehicle) {
	if v.Direction != l.direction {
		log.Panicf("add %v vehicle %d to %v lane", v.Direction, v.ID, l.direction)
	}
	l.vehicles = append(l.vehicles, v)
}

// Vehicles 获取车道上的车辆（内部指针，供路口逐车更新）
func (l *Lane) Vehicles() []*vehicle.Vehicle {
	return l.vehicles
}

// Snapshot 获取车道车辆的值拷贝
func (l *Lane) Snapshot() []vehicle.Vehicle {
	return lo.Map(l.vehicles, func(v *vehicle.Vehicle, _ int) vehicle.Vehicle {
		return *v
	})
}

// Restore 用给定的车辆数据替换车道上的所有车辆
func (l *Lane) Restore(vehicles []vehicle.Vehicle) {
	l.vehicles = make([]*vehicle.Vehicle, 0, len(vehicles))
	for i := range vehicles {
		v := vehicles[i]
		l.Add(&v)
	}
}

// Compact 移除已驶出的车辆
// 功能：在每一步运动之前执行一次，丢弃Active为false的车辆，保持其余车辆的相对顺序
// 返回：移除的车辆数
// 说明：车辆在驶出的那一步只被标记为无效，到下一步开始时才真正移除
func (l *Lane) Compact() int {
	before := len(l.vehicles)
	l.vehicles = lo.Filter(l.vehicles, func(v *vehicle.Vehicle, _ int) bool {
		return v.Active
	})
	return before - len(l.vehicles)
}

// Len 车道上的车辆数（包括尚未移除的无效车辆）
func (l *Lane) Len() int {
	return len(l.vehicles)
}

// ActiveCount 统计有效车辆数
func (l *Lane) ActiveCount() int {
	return lo.CountBy(l.vehicles, func(v *vehicle.Vehicle) bool {
		return v.Active
	})
}
