package config

import (
	"context"
	"testing"
)

func TestReloadConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	t.Setenv("BASTION_SECRET_SIGNING_KEY", "resolved")

	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8181"
app:
  secret_key: "${secret:signing-key}"
`)

	cfg, err := ReloadConfig(context.Background(), path)
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if GetConfig() != cfg {
		t.Fatal("expected reloaded config to become current")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:8181" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.App.SecretKey != "resolved" {
		t.Errorf("secret key = %q, want resolved", cfg.App.SecretKey)
	}
}

func TestReloadConfig_KeepsCurrentOnFailure(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	good := writeConfig(t, "app:\n  secret_key: s\n")
	badDriver := writeConfig(t, "database:\n  driver: oracle\napp:\n  secret_key: s\n")
	badSecret := writeConfig(t, "app:\n  secret_key: \"${secret:absent}\"\n")

	before, err := ReloadConfig(context.Background(), good)
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{badDriver, badSecret} {
		if _, err := ReloadConfig(context.Background(), path); err == nil {
			t.Fatalf("expected reload error for %s", path)
		}
		if GetConfig() != before {
			t.Error("expected config to be unchanged after failed reload")
		}
	}
}

func TestMustGetConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(nil)
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic before loading")
			}
		}()
		MustGetConfig()
	}()

	cfg := Default()
	SetConfig(cfg)
	if MustGetConfig() != cfg {
		t.Error("expected MustGetConfig to return the installed config")
	}
}
