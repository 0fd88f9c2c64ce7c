package junction

import (
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
)

// InjectUnchecked 绕过入口检查直接把车辆放入车道，用于构造被破坏的状态
func (j *Intersection) InjectUnchecked(v *vehicle.Vehicle) {
	j.streets.Lane(v.Direction).Add(v)
}

// SetLaneLightUnchecked 绕过信号灯控制器直接写入车道相位，用于构造相位不对称的状态
func (j *Intersection) SetLaneLightUnchecked(dir entity.Direction, phase entity.LightPhase) {
	j.streets.Lane(dir).SetLight(phase)
}
