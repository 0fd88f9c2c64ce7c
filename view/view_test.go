package view

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/intersection-sim/entity"
	"github.com/tsinghua-fib-lab/intersection-sim/entity/junction"
)

func newTestView(t *testing.T) (*View, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	v, err := New(screen)
	require.NoError(t, err)
	screen.SetSize(40, 24)
	t.Cleanup(v.Close)
	return v, screen
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestCommandFor(t *testing.T) {
	cases := []struct {
		key  tcell.Key
		r    rune
		want Command
	}{
		{tcell.KeyEscape, 0, Command{Kind: CommandQuit}},
		{tcell.KeyCtrlC, 0, Command{Kind: CommandQuit}},
		{tcell.KeyRune, 'q', Command{Kind: CommandQuit}},
		{tcell.KeyRune, ' ', Command{Kind: CommandPause}},
		{tcell.KeyRune, 'n', Command{Kind: CommandSpawn, Direction: entity.North}},
		{tcell.KeyRune, 'E', Command{Kind: CommandSpawn, Direction: entity.East}},
		{tcell.KeyRune, 's', Command{Kind: CommandSpawn, Direction: entity.South}},
		{tcell.KeyRune, 'w', Command{Kind: CommandSpawn, Direction: entity.West}},
	}
	for _, c := range cases {
		got, ok := commandFor(c.key, c.r)
		require.True(t, ok, "%v %q", c.key, c.r)
		assert.Equal(t, c.want, got)
	}

	_, ok := commandFor(tcell.KeyRune, 'x')
	assert.False(t, ok)
	_, ok = commandFor(tcell.KeyEnter, 0)
	assert.False(t, ok)
}

func TestDraw(t *testing.T) {
	v, screen := newTestView(t)

	j := junction.New(nil)
	_, ok := j.SpawnRoute(entity.South, entity.Straight)
	require.True(t, ok)
	_, ok = j.SpawnRoute(entity.East, entity.Left)
	require.True(t, ok)
	v.Draw(j.State(), false)

	south := junction.EntryCell(entity.South)
	east := junction.EntryCell(entity.East)
	assert.Equal(t, 'v', runeAt(screen, originX+int(south.X)*cellW, originY+int(south.Y)))
	assert.Equal(t, '>', runeAt(screen, originX+int(east.X)*cellW, originY+int(east.Y)))
	assert.Equal(t, '.', runeAt(screen, originX, originY))
	assert.Equal(t, 't', runeAt(screen, 0, 0))
}

func TestCloseClosesCommands(t *testing.T) {
	v, _ := newTestView(t)
	v.Start()
	v.Close()
	_, open := <-v.Commands()
	assert.False(t, open)
}
