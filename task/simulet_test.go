package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/config"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/output"
	"github.com/tsinghua-fib-lab/intersection-sim/view"
)

type memRecorder struct {
	records []output.StepRecord
	closed  bool
	err     error
}

func (r *memRecorder) Record(ctx context.Context, rec output.StepRecord) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) Close(ctx context.Context) error {
	r.closed = true
	return nil
}

type fakeViewer struct {
	commands chan view.Command
	frames   []*junction.State
}

func newFakeViewer(cmds ...view.Command) *fakeViewer {
	v := &fakeViewer{commands: make(chan view.Command, len(cmds)+1)}
	for _, c := range cmds {
		v.commands <- c
	}
	return v
}

func (v *fakeViewer) Commands() <-chan view.Command {
	return v.commands
}

func (v *fakeViewer) Draw(st *junction.State, paused bool) {
	v.frames = append(v.frames, st)
}

func testConfig(total int32, p float64) config.Config {
	c := config.Default()
	c.Control.Step.Total = total
	c.Control.Step.Interval = 0
	c.Control.SpawnProbability = p
	c.Control.Seed = 7
	return c
}

func TestRunAllSteps(t *testing.T) {
	rec := &memRecorder{}
	ctx, err := NewContext("job0", testConfig(30, 0.5), nil, rec, nil, "", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Run())

	assert.Equal(t, int32(30), ctx.Intersection().Tick())
	require.Len(t, rec.records, 30)
	assert.True(t, rec.closed)
	for i, r := range rec.records {
		assert.Equal(t, int32(i+1), r.Tick)
		assert.Equal(t, ctx.RunID(), r.RunID)
		assert.Equal(t, "job0", r.Job)
	}
	// 第10步切换为东西绿灯
	assert.Equal(t, "green", rec.records[9].Lanes[entity.East].Light)
	assert.Equal(t, "red", rec.records[8].Lanes[entity.East].Light)
	assert.NoError(t, ctx.Intersection().Check())
}

func TestRunDeterministic(t *testing.T) {
	run := func() *junction.State {
		ctx, err := NewContext("job0", testConfig(50, 0.6), nil, nil, nil, "", false)
		require.NoError(t, err)
		require.NoError(t, ctx.Run())
		return ctx.Intersection().State()
	}
	a, b := run(), run()
	assert.Equal(t, a.Grid, b.Grid)
	assert.Equal(t, a.Lanes, b.Lanes)
	assert.Equal(t, a.NextID, b.NextID)
}

func TestRunZeroProbability(t *testing.T) {
	ctx, err := NewContext("job0", testConfig(5, 0), nil, nil, nil, "", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Run())
	assert.Equal(t, 0, ctx.Intersection().ActiveCount())
	assert.Equal(t, int32(0), ctx.Intersection().State().NextID)
}

func TestDisableLight(t *testing.T) {
	c := testConfig(25, 0)
	c.Control.DisableLight = true
	ctx, err := NewContext("job0", c, nil, nil, nil, "", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Run())
	assert.Equal(t, entity.Green, ctx.Intersection().Phase(entity.North))
	assert.Equal(t, entity.Red, ctx.Intersection().Phase(entity.East))
}

func TestInvalidConfig(t *testing.T) {
	c := testConfig(5, 2)
	_, err := NewContext("job0", c, nil, nil, nil, "", false)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRecorderError(t *testing.T) {
	rec := &memRecorder{err: errors.New("down")}
	ctx, err := NewContext("job0", testConfig(5, 0), nil, rec, nil, "", false)
	require.NoError(t, err)
	err = ctx.Run()
	assert.Error(t, err)
	assert.Equal(t, int32(1), ctx.Intersection().Tick())
	assert.True(t, rec.closed)
}

func TestViewerCommands(t *testing.T) {
	v := newFakeViewer(
		view.Command{Kind: view.CommandSpawn, Direction: entity.West},
		view.Command{Kind: view.CommandSpawn, Direction: entity.West},
	)
	ctx, err := NewContext("job0", testConfig(3, 0), nil, nil, v, "", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Run())

	// 第二次生成时入口被占用，只有一辆车
	vs := ctx.Intersection().Vehicles(entity.West)
	require.Len(t, vs, 1)
	assert.Equal(t, int32(3), ctx.Intersection().Tick())
	// 初始帧加每步一帧
	assert.Len(t, v.frames, 4)
}

func TestViewerQuit(t *testing.T) {
	v := newFakeViewer(view.Command{Kind: view.CommandQuit})
	ctx, err := NewContext("job0", testConfig(10, 0), nil, nil, v, "", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Run())
	assert.Equal(t, int32(0), ctx.Intersection().Tick())
}

func TestViewerClosedStops(t *testing.T) {
	v := newFakeViewer()
	close(v.commands)
	ctx, err := NewContext("job0", testConfig(10, 0), nil, nil, v, "", false)
	require.NoError(t, err)
	require.NoError(t, ctx.Run())
	assert.Equal(t, int32(0), ctx.Intersection().Tick())
}

func TestPauseThenResume(t *testing.T) {
	v := newFakeViewer(view.Command{Kind: view.CommandPause})
	ctx, err := NewContext("job0", testConfig(2, 0), nil, nil, v, "", false)
	require.NoError(t, err)
	go func() {
		v.commands <- view.Command{Kind: view.CommandPause}
	}()
	require.NoError(t, ctx.Run())
	assert.Equal(t, int32(2), ctx.Intersection().Tick())
}
