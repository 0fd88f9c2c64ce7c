package junction

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/intersection-sim/clock"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/grid"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/lane"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/road"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
)

// 各方向的入口格子，位于网格边界
var entryCells = [entity.NumDirections]entity.Position{
	entity.North: {X: 4, Y: 9},
	entity.East:  {X: 0, Y: 4},
	entity.South: {X: 5, Y: 0},
	entity.West:  {X: 9, Y: 5},
}

// EntryCell 获取方向对应的入口格子
func EntryCell(dir entity.Direction) entity.Position {
	return entryCells[dir]
}

// StepStats 单步统计
type StepStats struct {
	Tick    int32 `json:"tick" bson:"tick"`       // 步数
	Moved   int   `json:"moved" bson:"moved"`     // 前进的车辆数
	Held    int   `json:"held" bson:"held"`       // 红灯停车的车辆数
	Blocked int   `json:"blocked" bson:"blocked"` // 前方被占用而等待的车辆数
	Exited  int   `json:"exited" bson:"exited"`   // 驶出的车辆数
	Removed int   `json:"removed" bson:"removed"` // 本步开始时移除的无效车辆数
	Flipped bool  `json:"flipped" bson:"flipped"` // 本步是否切换了信号灯
}

// Intersection 十字路口
// 功能：拥有两条街道、占用网格、时钟与信号灯控制器，对外提供生成车辆、单步推进与状态读取接口
// 说明：单线程同步执行，不包含任何锁；网格只能通过Step/Spawn修改
type Intersection struct {
	clock        *clock.Clock
	grid         grid.Grid
	streets      *road.StreetManager
	trafficLight ITrafficLight // 信号灯模块

	generator RandSource // 车辆方向与路线的随机数来源
	nextID    int32      // 下一辆车的ID
	lastStep  StepStats  // 上一步的统计
}

// New 创建十字路口
// 功能：创建10x10网格与南北、东西两条街道，初始相位为南北绿灯、东西红灯
// 参数：generator-随机数来源（可为nil，此时只能使用SpawnRoute生成车辆）
// 返回：初始化完成的路口，步数为0
func New(generator RandSource) *Intersection {
	streets := road.NewManager(entity.AxisNorthSouth)
	return &Intersection{
		clock:        clock.New(0),
		streets:      streets,
		trafficLight: trafficlight.NewFixedTrafficLight(streets.LightSetters(), trafficlight.DefaultPeriod),
		generator:    generator,
	}
}

// Step 推进一步
// 功能：执行一步仿真，所有车辆至多前进一格，必要时切换信号灯
// 返回：内部不变量被破坏时返回*InvariantError，此时路口状态已回滚到本步之前
// 算法说明：
// 1. 步数加一
// 2. 清空网格
// 3. 每条车道移除上一步已驶出的车辆
// 4. 按剩余车辆的位置重建网格
// 5. 按街道（南北、东西）、车道（North、South | East、West）、车道内顺序逐车执行运动规则：
//   - 驶出：置为无效并释放所在格子
//   - 前进：释放原格子并占用新格子
//   - 红灯停车或前方被占用：原地不动，所在格子保持占用
//
// 6. 步数是切换周期的整数倍时切换所有信号灯
// 7. 检查不变量
// 说明：遍历顺序决定了两辆车争抢同一格子时谁先进入，保持固定以保证结果可复现
func (j *Intersection) Step() error {
	before := j.State()
	stats := StepStats{Tick: j.clock.Next()}

	j.grid.Clear()
	lanes := j.streets.Lanes()
	for _, l := range lanes {
		stats.Removed += l.Compact()
	}
	if err := j.rebuild(lanes); err != nil {
		j.restore(before)
		return err
	}

	for _, l := range lanes {
		light := l.Light()
		for _, v := range l.Vehicles() {
			next, outcome := v.Next(light, &j.grid)
			switch outcome {
			case vehicle.Exit:
				j.grid.Unmark(v.Position)
				v.Deactivate()
				stats.Exited++
			case vehicle.Move:
				j.grid.Unmark(v.Position)
				v.Position = next
				j.grid.Mark(next)
				stats.Moved++
			case vehicle.Hold:
				stats.Held++
			case vehicle.Blocked:
				stats.Blocked++
			}
		}
	}

	stats.Flipped = j.trafficLight.Update(stats.Tick)

	if err := j.Check(); err != nil {
		j.restore(before)
		return err
	}
	j.lastStep = stats
	log.Debugf("%v: moved=%d held=%d blocked=%d exited=%d removed=%d flipped=%v",
		j.clock, stats.Moved, stats.Held, stats.Blocked, stats.Exited, stats.Removed, stats.Flipped,
	)
	return nil
}

// rebuild 根据车道上的车辆重建网格
func (j *Intersection) rebuild(lanes []*lane.Lane) error {
	for _, l := range lanes {
		for _, v := range l.Vehicles() {
			if !j.grid.Contains(v.Position) {
				return newInvariantError(j.clock.Step, "vehicle %d at %v is outside the grid", v.ID, v.Position)
			}
			if j.grid.Occupied(v.Position) {
				return newInvariantError(j.clock.Step, "vehicle %d shares cell %v", v.ID, v.Position)
			}
			j.grid.Mark(v.Position)
		}
	}
	return nil
}

// SpawnRandom 在随机方向生成一辆随机路线的车辆
// 功能：在四个方向中均匀选择一个，再在三种路线中均匀选择一种
// 返回：生成的车辆与是否生成成功（入口被占用时不生成）
func (j *Intersection) SpawnRandom() (vehicle.Vehicle, bool) {
	dir := entity.Directions[j.intn(entity.NumDirections)]
	return j.Spawn(dir)
}

// Spawn 在指定方向生成一辆随机路线的车辆
// 参数：dir-车辆方向
// 返回：生成的车辆与是否生成成功
func (j *Intersection) Spawn(dir entity.Direction) (vehicle.Vehicle, bool) {
	route := entity.Routes[j.intn(entity.NumRoutes)]
	return j.SpawnRoute(dir, route)
}

// SpawnRoute 在指定方向生成一辆指定路线的车辆
// 功能：入口格子空闲时创建有效车辆，加入对应车道并占用入口格子；入口被占用时直接放弃，不报错也不重试
// 参数：dir-车辆方向，route-路线
// 返回：生成的车辆（值拷贝）与是否生成成功
func (j *Intersection) SpawnRoute(dir entity.Direction, route entity.Route) (vehicle.Vehicle, bool) {
	pos := entryCells[dir]
	if j.grid.Occupied(pos) {
		log.Debugf("%v: %v entry %v occupied, drop spawn", j.clock, dir, pos)
		return vehicle.Vehicle{}, false
	}
	v := vehicle.New(j.nextID, pos, dir, route)
	j.nextID++
	j.streets.Lane(dir).Add(v)
	j.grid.Mark(pos)
	log.Debugf("%v: spawn %v", j.clock, v)
	return *v, true
}

func (j *Intersection) intn(n int) int {
	if j.generator == nil {
		log.Panic(ErrNoRandomSource)
	}
	return j.generator.Intn(n)
}

// Tick 获取当前步数
func (j *Intersection) Tick() int32 {
	return j.clock.Step
}

// Phase 获取指定方向的信号灯相位
func (j *Intersection) Phase(dir entity.Direction) entity.LightPhase {
	return j.trafficLight.Phase(dir)
}

// Phases 获取所有方向的信号灯相位
func (j *Intersection) Phases() [entity.NumDirections]entity.LightPhase {
	return j.trafficLight.Phases()
}

// SetLightOk 设置信号灯开关，下一步生效；关闭后相位保持不变
func (j *Intersection) SetLightOk(ok bool) {
	j.trafficLight.SetOk(ok)
}

// LightOk 获取信号灯开关状态
func (j *Intersection) LightOk() bool {
	return j.trafficLight.Ok()
}

// Vehicles 获取指定方向车道上车辆的值拷贝（包括刚驶出、尚未移除的车辆）
func (j *Intersection) Vehicles(dir entity.Direction) []vehicle.Vehicle {
	return j.streets.Lane(dir).Snapshot()
}

// Grid 获取占用网格的副本
func (j *Intersection) Grid() grid.Grid {
	return j.grid
}

// ActiveCount 统计有效车辆总数
func (j *Intersection) ActiveCount() int {
	n := 0
	for _, l := range j.streets.Lanes() {
		n += l.ActiveCount()
	}
	return n
}

// LastStep 获取上一步的统计
func (j *Intersection) LastStep() StepStats {
	return j.lastStep
}

// Clock 获取路口时钟，用于注册时钟RPC服务
func (j *Intersection) Clock() *clock.Clock {
	return j.clock
}

// Streets 按遍历顺序获取街道名称
func (j *Intersection) Streets() []string {
	return lo.Map(j.streets.Streets(), func(s *road.Street, _ int) string {
		return s.Name()
	})
}
