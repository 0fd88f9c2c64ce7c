package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息
// 说明：将YAML配置校验并转换为运行时可用的配置对象
type RuntimeConfig struct {
	All      Config        // 全部配置
	C        Control       // 全局控制配置
	Total    int32         // 总步数
	Interval time.Duration // 两步之间的实际时间间隔
}

// Parse 解析YAML配置
// 功能：在默认配置的基础上严格解析YAML数据，未知字段视为错误
// 参数：data-YAML数据，为空则返回默认配置
// 返回：配置与错误信息
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，进行配置验证
// 参数：config-原始配置对象
// 返回：运行时配置与错误信息
// 算法说明：
// 1. 检查总步数非负、时间间隔非负、生成概率在[0, 1]内
// 2. 输出URI非空时要求数据库名非空，批大小默认为1
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	c := config.Control
	if c.Step.Total < 0 {
		return nil, fmt.Errorf("%w: step total %d must be non-negative", ErrInvalidConfig, c.Step.Total)
	}
	if c.Step.Interval < 0 {
		return nil, fmt.Errorf("%w: step interval %v must be non-negative", ErrInvalidConfig, c.Step.Interval)
	}
	if c.SpawnProbability < 0 || c.SpawnProbability > 1 {
		return nil, fmt.Errorf("%w: spawn probability %v out of [0, 1]", ErrInvalidConfig, c.SpawnProbability)
	}
	if config.Output.URI != "" && config.Output.DB == "" {
		return nil, fmt.Errorf("%w: output db must be set when output uri is given", ErrInvalidConfig)
	}
	if config.Output.BatchSize <= 0 {
		config.Output.BatchSize = 1
	}

	rc := &RuntimeConfig{}
	rc.All = config
	rc.C = config.Control
	rc.Total = c.Step.Total
	rc.Interval = time.Duration(c.Step.Interval * float64(time.Second))
	return rc, nil
}
