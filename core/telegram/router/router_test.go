package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/cnybot/core/telegram"
)

type fakeContext struct {
	tele.Context
	userID int64
	store  map[string]any
}

func newFake(userID int64) *fakeContext {
	return &fakeContext{userID: userID, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update           { return tele.Update{ID: 1} }
func (f *fakeContext) Sender() *tele.User            { return &tele.User{ID: f.userID} }
func (f *fakeContext) Chat() *tele.Chat              { return &tele.Chat{ID: f.userID} }
func (f *fakeContext) Get(key string) interface{}    { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }

func TestCommandRoutes(t *testing.T) {
	var calls []string
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", tg.Command{Description: "s", Handler: func(tele.Context) error {
		calls = append(calls, "start")
		return nil
	}})
	reg.RegisterCommand("/stats", tg.Command{AdminOnly: true, Handler: func(tele.Context) error {
		calls = append(calls, "stats")
		return nil
	}})

	routes := CommandRoutes(reg, CommandOptions{AdminID: 99})
	require.Len(t, routes, 2)
	byName := map[any]tele.HandlerFunc{}
	for _, r := range routes {
		byName[r.Endpoint] = r.Handler
	}

	require.NoError(t, byName["/start"](newFake(1)))
	require.NoError(t, byName["/stats"](newFake(1)))
	require.NoError(t, byName["/stats"](newFake(99)))
	require.Equal(t, []string{"start", "stats"}, calls)
}

func TestTextRoute(t *testing.T) {
	reg := tg.NewRegistry()
	r := TextRoute(reg)
	require.Equal(t, tele.OnText, r.Endpoint)
	require.NoError(t, r.Handler(newFake(1)), "no handler is a no-op")

	want := errors.New("send failed")
	reg.SetTextHandler(func(tele.Context) error { return want })
	require.ErrorIs(t, r.Handler(newFake(1)), want)

	require.Len(t, Routes(reg, CommandOptions{}), 1)
}

func TestHandlerNameAndErrorCode(t *testing.T) {
	require.Equal(t, "cmd.start", handlerName("/start"))
	require.Equal(t, "unknown", handlerName(" "))
	require.Equal(t, "BLOCKED", errorCode(tele.ErrBlockedByUser))
	require.Equal(t, "INTERNAL", errorCode(errors.New("x")))
}
