package telegram

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cnybot/core/logger"
)

// Command is a slash command with its menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands run only for telegram.admin_id and are never published.
	AdminOnly bool
	// Hidden commands work but are left out of the command menu.
	Hidden bool
}

// Registry holds bot commands and the free-text handler.
type Registry struct {
	commands map[string]Command
	text     tele.HandlerFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// RegisterCommand adds a command. Invalid or duplicate registrations are logged and skipped.
func (r *Registry) RegisterCommand(name string, cmd Command) bool {
	reason := ""
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		reason = "no_slash_prefix"
	case cmd.Handler == nil:
		reason = "nil_handler"
	case !cmd.Hidden && !cmd.AdminOnly && cmd.Description == "":
		reason = "no_description"
	}
	if _, exists := r.commands[name]; exists && reason == "" {
		reason = "duplicate"
	}
	if reason != "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", name),
			slog.String("reason", reason),
		)
		return false
	}
	r.commands[name] = cmd
	return true
}

// Lookup returns the command registered under name; the leading slash is optional.
func (r *Registry) Lookup(name string) (Command, bool) {
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Names returns registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for n := range r.commands {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// MenuCommands returns the commands to publish, skipping hidden and admin-only ones.
func (r *Registry) MenuCommands() []tele.Command {
	var list []tele.Command
	for _, name := range r.Names() {
		cmd := r.commands[name]
		if cmd.Hidden || cmd.AdminOnly {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	return list
}

// SetTextHandler sets the handler for non-command text.
func (r *Registry) SetTextHandler(h tele.HandlerFunc) {
	r.text = h
}

// TextHandler returns the handler set by SetTextHandler.
func (r *Registry) TextHandler() tele.HandlerFunc {
	return r.text
}

// commandSetter is the subset of *tele.Bot used to publish the menu.
type commandSetter interface {
	SetCommands(opts ...interface{}) error
}

// SetupCommands publishes the command menu. Failure is logged, not fatal.
func SetupCommands(bot commandSetter, reg *Registry) {
	cmds := reg.MenuCommands()
	if err := bot.SetCommands(cmds); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			slog.String("err", err.Error()),
		)
		return
	}
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Text
	}
	preview, _ := logger.SummarizeStrings(names, 10)
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "register.commands.set",
		slog.Int("commands", len(cmds)),
		slog.String("names", preview),
	)
}
