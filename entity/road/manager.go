package road

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/lane"
)

// StreetManager 街道管理器
// 功能：管理路口的两条街道，提供按轴线、按方向查找街道与车道的功能
// 说明：两条街道恰好覆盖四个方向各一次；遍历顺序固定为南北街道、东西街道
type StreetManager struct {
	streets []*Street
	data    map[entity.Axis]*Street
	lanes   [entity.NumDirections]*lane.Lane // 方向->车道
}

// NewManager 创建街道管理器
// 功能：按固定顺序创建南北、东西两条街道
// 参数：green-初始为绿灯的轴线，另一条轴线为红灯
// 返回：新创建的街道管理器
func NewManager(green entity.Axis) *StreetManager {
	m := &StreetManager{
		streets: lo.Map(entity.Axes[:], func(axis entity.Axis, _ int) *Street {
			light := entity.Red
			if axis == green {
				light = entity.Green
			}
			return newStreet(axis, light)
		}),
	}
	m.data = lo.SliceToMap(m.streets, func(s *Street) (entity.Axis, *Street) {
		return s.axis, s
	})
	for _, s := range m.streets {
		for _, l := range s.lanes {
			m.lanes[l.Direction()] = l
		}
	}
	return m
}

// Get 根据轴线获取街道，如果不存在则panic
func (m *StreetManager) Get(axis entity.Axis) *Street {
	if s, ok := m.data[axis]; !ok {
		log.Panicf("no street on axis %v", axis)
		return nil
	} else {
		return s
	}
}

// GetOrError 根据轴线获取街道，如果不存在则返回错误
func (m *StreetManager) GetOrError(axis entity.Axis) (*Street, error) {
	if s, ok := m.data[axis]; !ok {
		return nil, fmt.Errorf("no street on axis %v", axis)
	} else {
		return s, nil
	}
}

// Streets 获取所有街道（固定顺序）
func (m *StreetManager) Streets() []*Street {
	return m.streets
}

// Lane 根据方向获取车道
func (m *StreetManager) Lane(dir entity.Direction) *lane.Lane {
	if dir < 0 || dir >= entity.NumDirections {
		log.Panicf("no lane for direction %v", dir)
	}
	return m.lanes[dir]
}

// Lanes 按遍历顺序获取所有车道：先按街道，再按街道内的方向
// 说明：该顺序决定同一步内车辆争抢同一格子时的先后
func (m *StreetManager) Lanes() []*lane.Lane {
	return lo.FlatMap(m.streets, func(s *Street, _ int) []*lane.Lane {
		return s.lanes[:]
	})
}

// LightSetters 获取所有车道的信号灯写入接口（遍历顺序）
func (m *StreetManager) LightSetters() []entity.ILaneTrafficLightSetter {
	return lo.Map(m.Lanes(), func(l *lane.Lane, _ int) entity.ILaneTrafficLightSetter {
		return l
	})
}
