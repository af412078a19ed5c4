package commands

import (
	"github.com/tiptv/bridge/command"
	"github.com/tiptv/bridge/config"
)

// Command names exposed to the shell.
const (
	CommandGreet        = "greet"
	CommandPlatformInfo = "get_platform_info"
	CommandAppVersion   = "get_app_version"
)

// Builtin returns the frozen registry of built-in commands. The command
// set is fixed at startup and cannot be mutated afterwards.
func Builtin(cfg config.Config) *command.Registry {
	reg := command.NewRegistry()
	reg.Register(CommandGreet, Greet(cfg.Greeting))
	reg.Register(CommandPlatformInfo, PlatformInfo())
	reg.Register(CommandAppVersion, AppVersion())
	return reg.Freeze()
}
