package telegram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

type recordingSetter struct {
	got []interface{}
	err error
}

func (r *recordingSetter) SetCommands(opts ...interface{}) error {
	r.got = opts
	return r.err
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.True(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "Новый расчет"}))
	require.True(t, reg.RegisterCommand("/cancel", Command{Handler: noop, Description: "Отменить расчет"}))
	require.True(t, reg.RegisterCommand("/stats", Command{Handler: noop, AdminOnly: true}))

	require.False(t, reg.RegisterCommand("/start", Command{Handler: noop, Description: "dup"}))
	require.False(t, reg.RegisterCommand("help", Command{Handler: noop, Description: "x"}))
	require.False(t, reg.RegisterCommand("/nil", Command{Description: "x"}))
	require.False(t, reg.RegisterCommand("/quiet", Command{Handler: noop}))

	require.Equal(t, []string{"/cancel", "/start", "/stats"}, reg.Names())
	_, ok := reg.Lookup("start")
	require.True(t, ok)

	require.Equal(t, []tele.Command{
		{Text: "cancel", Description: "Отменить расчет"},
		{Text: "start", Description: "Новый расчет"},
	}, reg.MenuCommands())
}

func TestSetupCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", Command{Handler: noop, Description: "Новый расчет"})

	s := &recordingSetter{}
	SetupCommands(s, reg)
	require.Len(t, s.got, 1)
	require.Equal(t, []tele.Command{{Text: "start", Description: "Новый расчет"}}, s.got[0])

	SetupCommands(&recordingSetter{err: errors.New("unauthorized")}, reg)
}
