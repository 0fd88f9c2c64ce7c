// 基于tcell的终端视图，显示路口网格、信号灯与车道统计
package view

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/grid"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
)

const (
	originX = 2 // 网格左上角所在列
	originY = 1 // 网格左上角所在行
	cellW   = 2 // 每个格子占用的列数
)

var (
	styleEmpty   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleGreen   = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleRed     = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleInvalid = tcell.StyleDefault.Foreground(tcell.ColorGray).Dim(true)
	// 按路线着色
	routeStyles = [entity.NumRoutes]tcell.Style{
		entity.Straight: tcell.StyleDefault.Foreground(tcell.ColorWhite),
		entity.Left:     tcell.StyleDefault.Foreground(tcell.ColorYellow),
		entity.Right:    tcell.StyleDefault.Foreground(tcell.ColorBlue),
	}
	// 按行驶方向选择字符
	directionGlyphs = [entity.NumDirections]rune{
		entity.North: '^',
		entity.East:  '>',
		entity.South: 'v',
		entity.West:  '<',
	}
)

// Glyph 获取方向对应的显示字符
func Glyph(dir entity.Direction) rune {
	return directionGlyphs[dir]
}

// View 终端视图
// 功能：绘制路口状态，并把按键转换为指令通过channel交给驱动仿真的协程
// 说明：Draw只读取状态快照，视图从不直接修改路口
type View struct {
	screen   tcell.Screen
	commands chan Command
	wg       sync.WaitGroup
	once     sync.Once
}

// NewTerminal 在当前终端上创建视图
func NewTerminal() (*View, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return New(screen)
}

// New 基于给定的screen创建视图并初始化screen
func New(screen tcell.Screen) (*View, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.Clear()
	return &View{
		screen:   screen,
		commands: make(chan Command, 16),
	}, nil
}

// Commands 按键产生的指令
// 说明：视图关闭后channel被关闭
func (v *View) Commands() <-chan Command {
	return v.commands
}

// Start 启动按键监听协程
func (v *View) Start() {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		defer close(v.commands)
		for {
			ev := v.screen.PollEvent()
			switch ev := ev.(type) {
			case nil:
				// screen已关闭
				return
			case *tcell.EventKey:
				cmd, ok := commandFor(ev.Key(), ev.Rune())
				if !ok {
					continue
				}
				select {
				case v.commands <- cmd:
				default:
					log.Warnf("command channel full, drop %+v", cmd)
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		}
	}()
}

// Draw 绘制一帧
// 参数：st-路口状态快照，paused-是否处于暂停状态
func (v *View) Draw(st *junction.State, paused bool) {
	s := v.screen
	s.Clear()

	title := fmt.Sprintf("tick %d  active %d", st.Tick, st.ActiveCount())
	if paused {
		title += "  [paused]"
	}
	if !st.LightOk {
		title += "  [light off]"
	}
	drawText(s, 0, 0, styleTitle, title)

	for y := int32(0); y < grid.Side; y++ {
		for x := int32(0); x < grid.Side; x++ {
			s.SetContent(originX+int(x)*cellW, originY+int(y), '.', nil, styleEmpty)
		}
	}
	for _, veh := range st.Vehicles() {
		p := veh.Position
		if p.X < 0 || p.X >= grid.Side || p.Y < 0 || p.Y >= grid.Side {
			continue
		}
		style := routeStyles[veh.Route]
		if !veh.Active {
			style = styleInvalid
		}
		s.SetContent(originX+int(p.X)*cellW, originY+int(p.Y), Glyph(veh.Direction), nil, style)
	}

	row := originY + grid.Side + 1
	for _, dir := range entity.Directions {
		phase := st.Phases[dir]
		style := styleRed
		if phase == entity.Green {
			style = styleGreen
		}
		drawText(s, 0, row, style, fmt.Sprintf("%c %-5s %-5s %d", Glyph(dir), dir, phase, len(st.Lanes[dir])))
		row++
	}
	drawText(s, 0, row+1, styleEmpty, "n/e/s/w spawn  space pause  q quit")
	s.Show()
}

// Close 关闭视图并等待按键监听协程退出
func (v *View) Close() {
	v.once.Do(func() {
		v.screen.Fini()
		v.wg.Wait()
	})
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
