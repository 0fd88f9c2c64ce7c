package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"time"

	"git.fiblab.net/sim/syncer/v3"
	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/intersection-sim/task"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/config"
	"github.com/tsinghua-fib-lab/intersection-sim/utils/output"
	"github.com/tsinghua-fib-lab/intersection-sim/view"
)

var (
	// 分布式模式syncer地址，如果设置为空则激活独立部署模式
	// 独立部署：不需要syncer，RPC服务仍然可用
	syncerAddr = flag.String("syncer", "", "syncer address (empty means standalone mode), e.g. http://localhost:53001")
	// 模拟任务名，主要用于服务注册与输出的数据库表名前缀
	job = flag.String("job", "job0", "the name of the whole simulation task")
	// 本程序监听的RPC地址
	grpcAddr = flag.String("listen", ":51102", "RPC listening address")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path (empty means default config)")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 终端视图
	withView = flag.Bool("view", false, "show the intersection in the terminal")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")
	// 日志文件，启用终端视图时日志不能写到终端
	logFile = flag.String("log.file", "", "log file path (empty means stderr)")

	log = logrus.WithField("module", "intersection")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Panicf("log file open err: %v", err)
		}
		defer f.Close()
		logrus.SetOutput(f)
	} else if *withView {
		log.Warn("log is written to stderr while the terminal view is on, consider -log.file")
	}

	// 获取配置
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Info("no config given, use default config")
	}
	c, err := config.Parse(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	log.Infof("%+v", c)

	// 输出
	var recorder output.Recorder = output.NopRecorder{}
	if c.Output.URI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		r, err := output.NewMongoRecorder(ctx, c.Output, *job+"_steps")
		cancel()
		if err != nil {
			log.Panicf("output init err: %v", err)
		}
		recorder = r
	}

	// 终端视图
	var viewer task.Viewer
	if *withView {
		v, err := view.NewTerminal()
		if err != nil {
			log.Panicf("view init err: %v", err)
		}
		defer v.Close()
		v.Start()
		viewer = v
	}

	sidecar := syncer.NewSidecar(task.SelfName, *grpcAddr, *syncerAddr)
	t, err := task.NewContext(*job, c, sidecar, recorder, viewer, *grpcAddr, true)
	if err != nil {
		log.Panicf("task init err: %v", err)
	}
	if err := t.Run(); err != nil {
		log.Panicf("run err: %v", err)
	}
}
