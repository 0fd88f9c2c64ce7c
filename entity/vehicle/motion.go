package vehicle

import (
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
)

// Outcome 运动规则的结果类型
type Outcome int32

const (
	Hold    Outcome = iota // 红灯停在停车线
	Move                   // 前进到候选格子
	Blocked                // 候选格子已被占用，原地等待
	Exit                   // 候选格子在网格外，车辆驶出
)

func (o Outcome) String() string {
	switch o {
	case Hold:
		return "hold"
	case Move:
		return "move"
	case Blocked:
		return "blocked"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// 停车线：车辆在行驶轴上的坐标等于该值且为红灯时停车
// 南北向比较y，东西向比较x
var stopLines = [entity.NumDirections]int32{
	entity.North: 6,
	entity.East:  3,
	entity.South: 3,
	entity.West:  6,
}

// 路口中心线，转向车辆越过中心线后转入垂直方向（4|5分界）
const (
	centerLow  = 4
	centerHigh = 5
)

// StopLine 获取方向对应的停车线坐标
func StopLine(dir entity.Direction) int32 {
	return stopLines[dir]
}

// axisCoordinate 车辆在行驶轴上的坐标
func axisCoordinate(pos entity.Position, dir entity.Direction) int32 {
	if dir.Axis() == entity.AxisNorthSouth {
		return pos.Y
	}
	return pos.X
}

// AtStopLine 检查车辆是否恰好位于所在方向的停车线上
func AtStopLine(pos entity.Position, dir entity.Direction) bool {
	return axisCoordinate(pos, dir) == stopLines[dir]
}

// Offset 计算候选格子（不考虑信号灯、边界与占用）
// 功能：根据方向、路线与车辆相对路口中心线的位置，计算一格位移后的坐标
// 参数：pos-当前位置，dir-行驶方向，route-路线
// 返回：候选坐标，可能落在网格外
// 算法说明：
// 1. 直行：沿行驶方向前进一格（北y-1，南y+1，东x+1，西x-1）
// 2. 左转/右转：尚未越过中心线时直行；越过后转入垂直方向，左转逆时针、右转顺时针
//   - 北：y>4时直行，否则左转x-1，右转x+1
//   - 南：y<5时直行，否则左转x+1，右转x-1
//   - 东：x<5时直行，否则左转y-1，右转y+1
//   - 西：x>4时直行，否则左转y+1，右转y-1
func Offset(pos entity.Position, dir entity.Direction, route entity.Route) entity.Position {
	switch dir {
	case entity.North:
		if route == entity.Straight || pos.Y > centerLow {
			return pos.Add(0, -1)
		}
		if route == entity.Left {
			return pos.Add(-1, 0)
		}
		return pos.Add(1, 0)
	case entity.South:
		if route == entity.Straight || pos.Y < centerHigh {
			return pos.Add(0, 1)
		}
		if route == entity.Left {
			return pos.Add(1, 0)
		}
		return pos.Add(-1, 0)
	case entity.East:
		if route == entity.Straight || pos.X < centerHigh {
			return pos.Add(1, 0)
		}
		if route == entity.Left {
			return pos.Add(0, -1)
		}
		return pos.Add(0, 1)
	case entity.West:
		if route == entity.Straight || pos.X > centerLow {
			return pos.Add(-1, 0)
		}
		if route == entity.Left {
			return pos.Add(0, 1)
		}
		return pos.Add(0, -1)
	default:
		log.Panicf("unknown direction %v", dir)
		return pos
	}
}

// NextPosition 运动规则
// 功能：给定车辆当前位置、方向、路线与所在车道的信号灯相位，计算本步的下一位置
// 参数：pos-当前位置，dir-行驶方向，route-路线，light-信号灯相位，occupancy-占用网格
// 返回：下一位置与结果类型
// 算法说明：
// 1. 红灯且位于停车线：返回当前位置，结果为Hold，不再检查后续规则
// 2. 按方向与路线计算候选格子（见Offset）
// 3. 候选格子在网格外：返回候选格子，结果为Exit，由调用方将车辆置为无效
// 4. 候选格子已被占用：返回当前位置，结果为Blocked
// 5. 否则返回候选格子，结果为Move
// 说明：纯函数，相同输入总是得到相同输出
func NextPosition(
	pos entity.Position,
	dir entity.Direction,
	route entity.Route,
	light entity.LightPhase,
	occupancy entity.IOccupancy,
) (entity.Position, Outcome) {
	if light == entity.Red && AtStopLine(pos, dir) {
		return pos, Hold
	}
	next := Offset(pos, dir, route)
	if !occupancy.Contains(next) {
		return next, Exit
	}
	if occupancy.Occupied(next) {
		return pos, Blocked
	}
	return next, Move
}
