package entity

import (
	"fmt"
	"strings"
)

// Direction 车辆驶入方向（同时也是车道的键）
// 功能：表示车辆的行驶朝向，North表示向北行驶（y减小），East表示向东行驶（x增大）
// 说明：固定4个取值，可直接作为长度为4的数组下标
type Direction int32

const (
	North Direction = iota // 向北
	East                   // 向东
	South                  // 向南
	West                   // 向西
)

// NumDirections 方向数量
const NumDirections = 4

// Directions 所有方向，按枚举值排序
var Directions = [NumDirections]Direction{North, East, South, West}

var directionNames = [NumDirections]string{"north", "east", "south", "west"}

func (d Direction) String() string {
	if d < 0 || d >= NumDirections {
		return fmt.Sprintf("Direction(%d)", int32(d))
	}
	return directionNames[d]
}

// Axis 获取方向所在的轴（南北轴或东西轴）
func (d Direction) Axis() Axis {
	if d == North || d == South {
		return AxisNorthSouth
	}
	return AxisEastWest
}

// Opposite 获取相反方向
func (d Direction) Opposite() Direction {
	return (d + 2) % NumDirections
}

// ParseDirection 解析方向名称
// 功能：将字符串（不区分大小写，支持首字母缩写n/e/s/w）转换为Direction
// 参数：s-方向名称
// 返回：方向与错误信息
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		if name == n || (len(name) == 1 && name[0] == n[0]) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Axis 道路轴线
type Axis int32

const (
	AxisNorthSouth Axis = iota // 南北向道路
	AxisEastWest               // 东西向道路
)

// Axes 所有轴线，顺序同时也是街道的遍历顺序
var Axes = [2]Axis{AxisNorthSouth, AxisEastWest}

func (a Axis) String() string {
	switch a {
	case AxisNorthSouth:
		return "north-south"
	case AxisEastWest:
		return "east-west"
	default:
		return fmt.Sprintf("Axis(%d)", int32(a))
	}
}

// Directions 获取轴线上的两个方向，顺序固定（North, South | East, West）
func (a Axis) Directions() [2]Direction {
	if a == AxisNorthSouth {
		return [2]Direction{North, South}
	}
	return [2]Direction{East, West}
}

// Route 车辆路线（在路口的转向行为），生成时确定，之后不再改变
type Route int32

const (
	Straight Route = iota // 直行
	Left                  // 左转
	Right                 // 右转
)

// NumRoutes 路线数量
const NumRoutes = 3

// Routes 所有路线
var Routes = [NumRoutes]Route{Straight, Left, Right}

var routeNames = [NumRoutes]string{"straight", "left", "right"}

func (r Route) String() string {
	if r < 0 || r >= NumRoutes {
		return fmt.Sprintf("Route(%d)", int32(r))
	}
	return routeNames[r]
}

// ParseRoute 解析路线名称
func ParseRoute(s string) (Route, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range routeNames {
		if name == n {
			return Route(i), nil
		}
	}
	return 0, fmt.Errorf("unknown route %q", s)
}

// LightPhase 信号灯相位，只有红绿两种状态，没有黄灯
type LightPhase int32

const (
	Red   LightPhase = iota // 红灯
	Green                   // 绿灯
)

func (p LightPhase) String() string {
	switch p {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return fmt.Sprintf("LightPhase(%d)", int32(p))
	}
}

// Flip 红绿互换
func (p LightPhase) Flip() LightPhase {
	if p == Green {
		return Red
	}
	return Green
}

// Position 网格坐标，x向东增大，y向南增大
type Position struct {
	X int32 `json:"x" bson:"x"`
	Y int32 `json:"y" bson:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add 坐标平移
func (p Position) Add(dx, dy int32) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	v, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (r Route) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Route) UnmarshalText(text []byte) error {
	v, err := ParseRoute(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (p LightPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *LightPhase) UnmarshalText(text []byte) error {
	switch string(text) {
	case "red":
		*p = Red
	case "green":
		*p = Green
	default:
		return fmt.Errorf("unknown light phase %q", text)
	}
	return nil
}
