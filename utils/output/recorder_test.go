package output_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/output"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeColl struct {
	batches [][]interface{}
	err     error
}

func (c *fakeColl) InsertMany(ctx context.Context, docs []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	batch := make([]interface{}, len(docs))
	copy(batch, docs)
	c.batches = append(c.batches, batch)
	return &mongo.InsertManyResult{}, nil
}

func TestRecorderBatches(t *testing.T) {
	ctx := context.Background()
	coll := &fakeColl{}
	r := output.NewRecorder(coll, 2)
	for i := int32(1); i <= 5; i++ {
		require.NoError(t, r.Record(ctx, output.StepRecord{Tick: i}))
	}
	assert.Len(t, coll.batches, 2)
	assert.Equal(t, 4, r.Written())

	require.NoError(t, r.Close(ctx))
	require.Len(t, coll.batches, 3)
	assert.Equal(t, int32(5), coll.batches[2][0].(output.StepRecord).Tick)
	assert.Equal(t, 5, r.Written())
}

func TestRecorderError(t *testing.T) {
	coll := &fakeColl{err: errors.New("boom")}
	r := output.NewRecorder(coll, 1)
	assert.Error(t, r.Record(context.Background(), output.StepRecord{}))
}

func TestNewStepRecord(t *testing.T) {
	j := junction.New(nil)
	_, ok := j.SpawnRoute(entity.South, entity.Straight)
	require.True(t, ok)
	require.NoError(t, j.Step())

	rec := output.NewStepRecord("run", "job0", j.State(), j.LastStep())
	assert.Equal(t, "run", rec.RunID)
	assert.Equal(t, int32(1), rec.Tick)
	require.Len(t, rec.Lanes, entity.NumDirections)
	south := rec.Lanes[entity.South]
	assert.Equal(t, "south", south.Direction)
	assert.Equal(t, "green", south.Light)
	assert.Equal(t, 1, south.Active)
	assert.Equal(t, "red", rec.Lanes[entity.East].Light)
	assert.Equal(t, 1, rec.Stats.Moved)
}

func TestStepRecordCountsOnlyActive(t *testing.T) {
	st := &junction.State{Tick: 4}
	st.Lanes[entity.North] = []vehicle.Vehicle{
		{ID: 1, Position: entity.Position{X: 4, Y: -1}, Direction: entity.North, Active: false},
		{ID: 2, Position: entity.Position{X: 4, Y: 3}, Direction: entity.North, Active: true},
		{ID: 3, Position: entity.Position{X: 4, Y: 5}, Direction: entity.North, Active: true},
	}
	rec := output.NewStepRecord("run", "job0", st, junction.StepStats{Tick: 4})
	north := rec.Lanes[entity.North]
	assert.Equal(t, 3, north.Vehicles)
	assert.Equal(t, 2, north.Active)
	assert.Equal(t, 0, rec.Lanes[entity.West].Vehicles)
}

func TestNopRecorder(t *testing.T) {
	var r output.Recorder = output.NopRecorder{}
	assert.NoError(t, r.Record(context.Background(), output.StepRecord{}))
	assert.NoError(t, r.Close(context.Background()))
}
