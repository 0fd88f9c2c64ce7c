package grid

import (
	"strings"

	"github.com/tsinghua-fib-lab/intersection-sim/entity"
)

// Side 网格边长，路口模型固定为10x10，停车线与入口坐标都依赖于该值
const Side = 10

// Grid 占用网格
// 功能：记录每个格子是否有车辆，用于回答"(x,y)是否被占用"并防止同一步内两辆车进入同一格子
// 说明：派生数据，每一步由路口根据所有有效车辆的位置重建，不是车辆存在与否的依据；
// 按[x][y]存储
type Grid struct {
	cells [Side][Side]bool
}

// Contains 检查坐标是否在网格范围[0,Side)x[0,Side)内
func (g *Grid) Contains(p entity.Position) bool {
	return p.X >= 0 && p.X < Side && p.Y >= 0 && p.Y < Side
}

// Occupied 检查格子是否被占用
// 功能：查询指定格子的占用标记
// 参数：p-格子坐标
// 返回：true表示已被占用；网格范围外的坐标总是返回false
func (g *Grid) Occupied(p entity.Position) bool {
	if !g.Contains(p) {
		return false
	}
	return g.cells[p.X][p.Y]
}

// Clear 清空所有占用标记
func (g *Grid) Clear() {
	g.cells = [Side][Side]bool{}
}

// Mark 标记格子为占用
// 功能：写入占用标记，坐标越界说明运动规则存在缺陷，直接panic
// 参数：p-格子坐标
func (g *Grid) Mark(p entity.Position) {
	if !g.Contains(p) {
		log.Panicf("mark cell %v out of grid", p)
	}
	g.cells[p.X][p.Y] = true
}

// Unmark 取消格子的占用标记
func (g *Grid) Unmark(p entity.Position) {
	if !g.Contains(p) {
		log.Panicf("unmark cell %v out of grid", p)
	}
	g.cells[p.X][p.Y] = false
}

// Count 统计被占用的格子数
func (g *Grid) Count() int {
	n := 0
	for x := range g.cells {
		for y := range g.cells[x] {
			if g.cells[x][y] {
				n++
			}
		}
	}
	return n
}

// Cells 获取占用矩阵的副本，按[x][y]索引
func (g *Grid) Cells() [Side][Side]bool {
	return g.cells
}

// FromCells 根据占用矩阵构造网格
func FromCells(cells [Side][Side]bool) Grid {
	return Grid{cells: cells}
}

// String 以文本形式输出网格，每行对应一个y值，'#'为占用，'.'为空
func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < Side; y++ {
		for x := 0; x < Side; x++ {
			if g.cells[x][y] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
