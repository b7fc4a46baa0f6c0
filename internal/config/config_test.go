package config

import "testing"

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{DatabasePath: "/data/library.db", Port: 8080, LogLevel: "info"}, false},
		{"missing database path", Config{Port: 8080}, true},
		{"backup requires metadata path", Config{DatabasePath: "/data/library.db", BackupActions: true}, true},
		{"bad port", Config{DatabasePath: "/data/library.db", Port: 70000}, true},
		{"bad log level", Config{DatabasePath: "/data/library.db", LogLevel: "verbose"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.cfg.Validate()
			if (err != nil) != c.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, c.wantErr)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARKERD_DATABASE_PATH", "/tmp/library.db")
	t.Setenv("MARKERD_METADATA_PATH", "/tmp/markerd")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabasePath != "/tmp/library.db" {
		t.Errorf("DatabasePath = %q, want /tmp/library.db", cfg.DatabasePath)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want default 8080", cfg.Port)
	}
	if !cfg.BackupActions {
		t.Error("BackupActions should default to true")
	}
}
