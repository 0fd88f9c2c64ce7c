package entity

// 依赖倒置

// entity/grid/grid.go的依赖倒置，给运动规则提供的占用查询接口
type IOccupancy interface {
	Contains(p Position) bool // 坐标是否在网格范围内
	Occupied(p Position) bool // 坐标是否已被占用
}

// entity/lane/lane.go的依赖倒置，给信号灯控制器提供的写入接口
type ILaneTrafficLightSetter interface {
	Direction() Direction      // 车道方向
	Light() LightPhase         // 当前信号灯相位
	SetLight(phase LightPhase) // 写入信号灯相位
}
