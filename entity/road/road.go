package road

import (
	"fmt"

	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/lane"
)

// Street 街道
// 功能：同一轴线上两条相反方向车道的组合（南北街道包含North/South，东西街道包含East/West）
type Street struct {
	axis  entity.Axis
	name  string
	lanes [2]*lane.Lane // 按axis.Directions()的顺序排列
}

// newStreet 创建街道
// 参数：axis-街道轴线，light-两条车道的初始信号灯相位
func newStreet(axis entity.Axis, light entity.LightPhase) *Street {
	dirs := axis.Directions()
	return &Street{
		axis: axis,
		name: axis.String(),
		lanes: [2]*lane.Lane{
			lane.New(dirs[0], light),
			lane.New(dirs[1], light),
		},
	}
}

func (s *Street) String() string {
	return fmt.Sprintf("Street{%s, %v, %v}", s.name, s.lanes[0], s.lanes[1])
}

// Axis 获取街道轴线
func (s *Street) Axis() entity.Axis {
	return s.axis
}

// Name 获取街道名称
func (s *Street) Name() string {
	return s.name
}

// Lanes 获取街道上的两条车道，顺序固定
func (s *Street) Lanes() [2]*lane.Lane {
	return s.lanes
}

// Lane 根据方向获取车道
// 返回：车道与是否找到
func (s *Street) Lane(dir entity.Direction) (*lane.Lane, bool) {
	for _, l := range s.lanes {
		if l.Direction() == dir {
			return l, true
		}
	}
	return nil, false
}
