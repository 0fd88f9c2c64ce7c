package config

// ControlStep 指定模拟器模拟步数和间隔的配置项
// 功能：定义仿真步数控制参数
type ControlStep struct {
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 两步之间的实际时间间隔（秒），0表示不等待
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：包含步数控制、车辆生成与信号灯开关
type Control struct {
	Step             ControlStep `yaml:"step"`
	SpawnProbability float64     `yaml:"spawn_probability"`       // 每步尝试生成一辆车的概率
	Seed             uint64      `yaml:"seed,omitempty"`          // 随机数种子
	DisableLight     bool        `yaml:"disable_light,omitempty"` // 关闭信号灯（相位保持初始值不再切换）
}

// Output 统计输出配置，URI为空则不输出
type Output struct {
	URI       string `yaml:"uri,omitempty"`        // MongoDB连接字符串
	DB        string `yaml:"db,omitempty"`         // 数据库名
	Col       string `yaml:"col,omitempty"`        // 集合名，为空则使用{job}_steps
	BatchSize int    `yaml:"batch_size,omitempty"` // 每批写入的文档数
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含控制、输出等所有配置项
type Config struct {
	Control Control `yaml:"control"`          // 模拟过程控制
	Output  Output  `yaml:"output,omitempty"` // 输出
}

// Default 默认配置：100步，每步间隔0.5秒，每步以30%的概率生成车辆
func Default() Config {
	return Config{
		Control: Control{
			Step: ControlStep{
				Total:    100,
				Interval: 0.5,
			},
			SpawnProbability: 0.3,
		},
		Output: Output{
			DB:        "simulation",
			BatchSize: 100,
		},
	}
}
