package junction

import (
	"github.com/tsinghua-fib-lab/intersection-sim/entity/grid"
)

// Check 检查路口的内部不变量
// 功能：逐项检查车辆、网格与信号灯状态是否一致
// 返回：第一个不满足的不变量对应的*InvariantError，全部满足时返回nil
// 算法说明：
// 1. 每辆有效车辆都在网格范围内，且所在车道与其方向一致
// 2. 没有两辆有效车辆位于同一格子
// 3. 网格恰好标记所有有效车辆所在的格子
// 4. 信号灯相位满足对称性：南北相同、东西相同、两轴相反
func (j *Intersection) Check() error {
	tick := j.clock.Step
	var expected grid.Grid
	active := 0
	for _, l := range j.streets.Lanes() {
		for _, v := range l.Vehicles() {
			if v.Direction != l.Direction() {
				return newInvariantError(tick, "vehicle %d heading %v is in %v lane", v.ID, v.Direction, l.Direction())
			}
			if !v.Active {
				continue
			}
			if !expected.Contains(v.Position) {
				return newInvariantError(tick, "active vehicle %d at %v is outside the grid", v.ID, v.Position)
			}
			if expected.Occupied(v.Position) {
				return newInvariantError(tick, "active vehicle %d shares cell %v", v.ID, v.Position)
			}
			expected.Mark(v.Position)
			active++
		}
	}
	if expected.Cells() != j.grid.Cells() {
		return newInvariantError(tick, "grid marks %d cells but %d vehicles are active", j.grid.Count(), active)
	}
	if err := j.trafficLight.Check(); err != nil {
		return newInvariantError(tick, "%v: %v", err, j.trafficLight.Phases())
	}
	return nil
}

// MustCheck 检查不变量，不满足时panic
func (j *Intersection) MustCheck() {
	if err := j.Check(); err != nil {
		log.Panicf("%v", err)
	}
}
