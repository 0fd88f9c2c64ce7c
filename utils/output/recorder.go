// 每步统计的输出，写入MongoDB
package output

import (
	"context"
	"fmt"

	"github.com/tsinghua-fib-lab/intersection-sim/utils/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Recorder 统计输出接口
type Recorder interface {
	Record(ctx context.Context, rec StepRecord) error
	Close(ctx context.Context) error
}

// NopRecorder 不输出任何内容
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, StepRecord) error { return nil }
func (NopRecorder) Close(context.Context) error { return nil }

// Inserter 批量写入接口，由*mongo.Collection实现
type Inserter interface {
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
}

// MongoRecorder 按批写入MongoDB的统计输出
// 说明：非线程安全，只应在驱动仿真的协程中使用
type MongoRecorder struct {
	client    *mongo.Client // 为nil时Close不断开连接
	coll      Inserter
	batchSize int
	buffer    []interface{}
	written   int
}

// NewRecorder 基于给定的写入目标创建输出
// 参数：coll-写入目标，batchSize-每批文档数
func NewRecorder(coll Inserter, batchSize int) *MongoRecorder {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &MongoRecorder{
		coll:      coll,
		batchSize: batchSize,
		buffer:    make([]interface{}, 0, batchSize),
	}
}

// NewMongoRecorder 连接MongoDB并创建输出
// 参数：ctx-上下文，out-输出配置，col-集合名（配置中的集合名优先）
// 返回：输出与错误信息
func NewMongoRecorder(ctx context.Context, out config.Output, col string) (*MongoRecorder, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(out.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if out.Col != "" {
		col = out.Col
	}
	log.Infof("record steps to %s.%s", out.DB, col)
	r := NewRecorder(client.Database(out.DB).Collection(col), out.BatchSize)
	r.client = client
	return r, nil
}

// Record 缓存一条文档，缓存满一批时写入
func (r *MongoRecorder) Record(ctx context.Context, rec StepRecord) error {
	r.buffer = append(r.buffer, rec)
	if len(r.buffer) < r.batchSize {
		return nil
	}
	return r.Flush(ctx)
}

// Flush 写入所有缓存的文档
func (r *MongoRecorder) Flush(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}
	if _, err := r.coll.InsertMany(ctx, r.buffer); err != nil {
		return fmt.Errorf("insert %d records: %w", len(r.buffer), err)
	}
	r.written += len(r.buffer)
	r.buffer = r.buffer[:0]
	return nil
}

// Written 已写入的文档数
func (r *MongoRecorder) Written() int {
	return r.written
}

// Close 写入剩余文档并断开连接
func (r *MongoRecorder) Close(ctx context.Context) error {
	err := r.Flush(ctx)
	if r.client != nil {
		if derr := r.client.Disconnect(ctx); derr != nil && err == nil {
			err = fmt.Errorf("disconnect mongodb: %w", derr)
		}
	}
	log.Infof("%d step records written", r.written)
	return err
}
