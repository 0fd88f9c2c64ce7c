package junction

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/tiendc/go-deepcopy"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/grid"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
)

// MaxForecastSteps 单次预测的最大步数
const MaxForecastSteps = 1000

// State 路口状态快照
// 功能：路口全部可观测状态的值拷贝，供显示、输出与回滚使用
// 说明：Lanes与Phases按方向枚举值索引，Grid按[x][y]索引
type State struct {
	Tick    int32                                   `json:"tick"`
	Phases  [entity.NumDirections]entity.LightPhase `json:"phases"`
	Flips   int32                                   `json:"flips"`
	LightOk bool                                    `json:"light_ok"`
	Lanes   [entity.NumDirections][]vehicle.Vehicle `json:"lanes"`
	Grid    [grid.Side][grid.Side]bool              `json:"grid"`
	NextID  int32                                   `json:"next_id"`
}

// State 获取当前状态快照
func (j *Intersection) State() *State {
	st := &State{
		Tick:    j.clock.Step,
		Phases:  j.trafficLight.Phases(),
		Flips:   j.trafficLight.Flips(),
		LightOk: j.trafficLight.Ok(),
		Grid:    j.grid.Cells(),
		NextID:  j.nextID,
	}
	for _, dir := range entity.Directions {
		st.Lanes[dir] = j.streets.Lane(dir).Snapshot()
	}
	return st
}

// restore 将路口恢复到给定状态
func (j *Intersection) restore(st *State) {
	j.clock.Step = st.Tick
	j.trafficLight.Restore(st.Phases, st.Flips, st.LightOk)
	for _, dir := range entity.Directions {
		j.streets.Lane(dir).Restore(st.Lanes[dir])
	}
	j.grid = grid.FromCells(st.Grid)
	j.nextID = st.NextID
}

// FromState 根据状态快照构造路口
// 功能：深拷贝快照后恢复出一个独立的路口，新路口与快照之间不共享任何数据
// 参数：st-状态快照，generator-随机数来源
// 返回：恢复出的路口；快照不满足不变量时返回错误
func FromState(st *State, generator RandSource) (*Intersection, error) {
	c, err := st.Clone()
	if err != nil {
		return nil, err
	}
	for _, dir := range entity.Directions {
		for _, v := range c.Lanes[dir] {
			if v.Direction != dir {
				return nil, fmt.Errorf("restore from state: %w", newInvariantError(c.Tick, "vehicle %d heading %v is in %v lane", v.ID, v.Direction, dir))
			}
		}
	}
	j := New(generator)
	j.restore(c)
	j.trafficLight.SetOk(c.LightOk)
	if err := j.Check(); err != nil {
		return nil, fmt.Errorf("restore from state: %w", err)
	}
	return j, nil
}

// Forecast 预测后续若干步的状态
// 功能：在路口的副本上不生成新车辆地推进steps步，返回每一步之后的状态，不影响路口本身
// 参数：steps-预测步数，范围[1, MaxForecastSteps]
// 返回：各步状态与错误信息
func (j *Intersection) Forecast(steps int) ([]*State, error) {
	return ForecastFrom(j.State(), steps)
}

// ForecastFrom 从状态快照出发预测后续若干步的状态，快照本身不被修改
func ForecastFrom(st *State, steps int) ([]*State, error) {
	if steps <= 0 || steps > MaxForecastSteps {
		return nil, fmt.Errorf("forecast steps %d out of range [1, %d]", steps, MaxForecastSteps)
	}
	sim, err := FromState(st, nil)
	if err != nil {
		return nil, err
	}
	states := make([]*State, 0, steps)
	for i := 0; i < steps; i++ {
		if err := sim.Step(); err != nil {
			return states, err
		}
		states = append(states, sim.State())
	}
	return states, nil
}

// Clone 深拷贝状态
func (s *State) Clone() (*State, error) {
	c := &State{}
	if err := deepcopy.Copy(c, s); err != nil {
		return nil, fmt.Errorf("clone state: %w", err)
	}
	return c, nil
}

// Vehicles 按遍历顺序（街道、车道、车道内顺序）获取所有车辆
func (s *State) Vehicles() []vehicle.Vehicle {
	res := make([]vehicle.Vehicle, 0)
	for _, axis := range entity.Axes {
		for _, dir := range axis.Directions() {
			res = append(res, s.Lanes[dir]...)
		}
	}
	return res
}

// ActiveCount 统计有效车辆数
func (s *State) ActiveCount() int {
	return lo.CountBy(s.Vehicles(), func(v vehicle.Vehicle) bool {
		return v.Active
	})
}

// Summary 输出各街道各车道的信号灯与车辆数
func (s *State) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "tick=%d", s.Tick)
	for _, axis := range entity.Axes {
		fmt.Fprintf(&sb, " [%v", axis)
		for _, dir := range axis.Directions() {
			fmt.Fprintf(&sb, " %v:%v/%d", dir, s.Phases[dir], len(s.Lanes[dir]))
		}
		sb.WriteString("]")
	}
	return sb.String()
}
