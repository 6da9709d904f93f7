// Package keyboard builds reply keyboards.
package keyboard

import tele "gopkg.in/telebot.v4"

// Options tune a reply keyboard.
type Options struct {
	// OneTime hides the keyboard after a button press.
	OneTime bool
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard from rows of labels. Empty rows are skipped.
func ReplyButtons(opts Options, rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: opts.OneTime}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tele.Btn, len(row))
		for i, label := range row {
			buttons[i] = markup.Text(label)
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// Column places each label on its own row.
func Column(labels ...string) [][]string {
	rows := make([][]string, len(labels))
	for i, l := range labels {
		rows[i] = []string{l}
	}
	return rows
}
