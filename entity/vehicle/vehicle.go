package vehicle

import (
	"fmt"

	"github.com/tsinghua-fib-lab/intersection-sim/entity"
)

// Vehicle 车辆
// 功能：描述一辆车的位置、行驶方向、路线与是否仍在路口范围内
// 说明：生成时Active为true，每一步原地更新位置；驶出网格后Active置为false且不会再恢复，
// 由所在车道在下一步开始时移除
type Vehicle struct {
	ID        int32            `json:"id" bson:"id"`
	Position  entity.Position  `json:"position" bson:"position"`
	Route     entity.Route     `json:"route" bson:"route"`
	Direction entity.Direction `json:"direction" bson:"direction"`
	Active    bool             `json:"active" bson:"active"`
}

// New 创建一辆有效车辆
func New(id int32, pos entity.Position, dir entity.Direction, route entity.Route) *Vehicle {
	return &Vehicle{
		ID:        id,
		Position:  pos,
		Route:     route,
		Direction: dir,
		Active:    true,
	}
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{ID=%d, Pos=%v, Dir=%v, Route=%v, Active=%v}", v.ID, v.Position, v.Direction, v.Route, v.Active)
}

// Next 计算车辆本步的下一位置
// 功能：按车道当前信号灯相位与占用网格执行运动规则
// 参数：light-所在车道的信号灯相位，occupancy-占用网格
// 返回：候选位置与结果类型
func (v *Vehicle) Next(light entity.LightPhase, occupancy entity.IOccupancy) (entity.Position, Outcome) {
	return NextPosition(v.Position, v.Direction, v.Route, light, occupancy)
}

// Deactivate 标记车辆已驶出
func (v *Vehicle) Deactivate() {
	v.Active = false
}
