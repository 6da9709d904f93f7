package keyboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons(Options{OneTime: true}, []string{"/start"}, nil, []string{"a", "b"})
	require.True(t, m.ResizeKeyboard)
	require.True(t, m.OneTimeKeyboard)
	require.Len(t, m.ReplyKeyboard, 2)
	require.Equal(t, "/start", m.ReplyKeyboard[0][0].Text)
	require.Equal(t, "b", m.ReplyKeyboard[1][1].Text)

	require.False(t, ReplyButtons(Options{}, []string{"x"}).OneTimeKeyboard)
}

func TestColumnAndRemove(t *testing.T) {
	require.Equal(t, [][]string{{"a"}, {"b"}}, Column("a", "b"))
	require.True(t, RemoveKeyboard().RemoveKeyboard)
}
