package view

import (
	"github.com/gdamore/tcell/v2"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
)

// CommandKind 终端输入产生的指令类型
type CommandKind int

const (
	CommandQuit  CommandKind = iota // 退出
	CommandSpawn                    // 在指定方向生成车辆
	CommandPause                    // 暂停/继续
)

// Command 终端输入产生的指令，由驱动仿真的协程执行
type Command struct {
	Kind      CommandKind
	Direction entity.Direction // 仅CommandSpawn有效
}

// commandFor 将按键映射为指令
// 说明：q/Esc/Ctrl-C退出，n/e/s/w在对应方向生成车辆，空格暂停
func commandFor(key tcell.Key, r rune) (Command, bool) {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return Command{Kind: CommandQuit}, true
	case tcell.KeyRune:
	default:
		return Command{}, false
	}
	switch r {
	case 'q', 'Q':
		return Command{Kind: CommandQuit}, true
	case ' ':
		return Command{Kind: CommandPause}, true
	}
	if dir, err := entity.ParseDirection(string(r)); err == nil {
		return Command{Kind: CommandSpawn, Direction: dir}, true
	}
	return Command{}, false
}
