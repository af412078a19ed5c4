package commands

import (
	"context"
	"testing"

	"github.com/tiptv/bridge/command"
	"github.com/tiptv/bridge/config"
	"github.com/tiptv/bridge/platform"
	"github.com/tiptv/bridge/version"
)

func TestBuiltinRegistry(t *testing.T) {
	reg := Builtin(config.DefaultConfig())

	if !reg.Frozen() {
		t.Error("expected built-in registry to be frozen")
	}
	if reg.Len() != 3 {
		t.Errorf("expected 3 commands, got %d", reg.Len())
	}

	for _, name := range []string{CommandGreet, CommandPlatformInfo, CommandAppVersion} {
		if _, ok := reg.Get(name); !ok {
			t.Errorf("expected command %s to be registered", name)
		}
	}
}

func TestBuiltinRegistryRejectsMutation(t *testing.T) {
	reg := Builtin(config.DefaultConfig())

	defer func() {
		if recover() == nil {
			t.Error("expected panic when registering on frozen registry")
		}
	}()
	reg.Register("extra", func(ctx context.Context, inv *command.Invocation) (string, error) {
		return "", nil
	})
}

func TestPlatformInfoHandler(t *testing.T) {
	handler := PlatformInfo()
	inv := command.NewInvocation(CommandPlatformInfo).MustBuild()

	got, err := handler(context.Background(), inv)
	if err != nil {
		t.Fatalf("platform info failed: %v", err)
	}
	if got != platform.Identifier() {
		t.Errorf("expected %q, got %q", platform.Identifier(), got)
	}
	if !platform.Supported(got) {
		t.Errorf("expected a supported platform identifier, got %q", got)
	}
}

func TestAppVersionHandler(t *testing.T) {
	handler := AppVersion()
	inv := command.NewInvocation(CommandAppVersion).MustBuild()

	got, err := handler(context.Background(), inv)
	if err != nil {
		t.Fatalf("app version failed: %v", err)
	}
	if got != version.Get() {
		t.Errorf("expected %q, got %q", version.Get(), got)
	}
	if got == "" {
		t.Error("expected non-empty version")
	}
}
