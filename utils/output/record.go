package output

import (
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
)

// LaneRecord 单条车道的统计
type LaneRecord struct {
	Direction string `bson:"direction"` // 车道方向
	Light     string `bson:"light"`     // 信号灯相位
	Vehicles  int    `bson:"vehicles"`  // 车道上的车辆数（包括刚驶出、尚未移除的车辆）
	Active    int    `bson:"active"`    // 有效车辆数
}

// StepRecord 每步写入数据库的一条文档
type StepRecord struct {
	RunID   string             `bson:"run_id"`   // 运行ID，区分同一集合中的多次运行
	Job     string             `bson:"job"`      // 任务名
	Tick    int32              `bson:"tick"`     // 步数
	LightOk bool               `bson:"light_ok"` // 信号灯是否工作
	Lanes   []LaneRecord       `bson:"lanes"`    // 按方向枚举值排序
	Stats   junction.StepStats `bson:"stats"`    // 本步统计
	Time    time.Time          `bson:"time"`     // 写入时的墙钟时间
}

// NewStepRecord 根据状态快照与单步统计构造文档
func NewStepRecord(runID, job string, st *junction.State, stats junction.StepStats) StepRecord {
	rec := StepRecord{
		RunID:   runID,
		Job:     job,
		Tick:    st.Tick,
		LightOk: st.LightOk,
		Lanes:   make([]LaneRecord, 0, entity.NumDirections),
		Stats:   stats,
		Time:    time.Now(),
	}
	for _, dir := range entity.Directions {
		vs := st.Lanes[dir]
		active := lo.CountBy(vs, func(v vehicle.Vehicle) bool {
			return v.Active
		})
		rec.Lanes = append(rec.Lanes, LaneRecord{
			Direction: dir.String(),
			Light:     st.Phases[dir].String(),
			Vehicles:  len(vs),
			Active:    active,
		})
	}
	return rec
}
