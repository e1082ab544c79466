package main

import (
	"testing"
)

func TestServerHostFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("server-host")
	if flag == nil {
		t.Fatal("server-host flag is not registered")
	}

	if err := rootCmd.PersistentFlags().Set("server-host", "127.0.0.1"); err != nil {
		t.Fatalf("Set(server-host) = %v", err)
	}
	t.Cleanup(func() {
		_ = rootCmd.PersistentFlags().Set("server-host", flag.DefValue)
	})

	cfg := buildConfig()
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want 127.0.0.1", cfg.Server.Host)
	}
}

func TestSplitPlaylistIDs(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "empty", value: "", want: nil},
		{name: "single", value: "p1", want: []string{"p1"}},
		{name: "multiple with whitespace", value: " p1, p2 ,p3", want: []string{"p1", "p2", "p3"}},
		{name: "empty entries dropped", value: "p1,,p2,", want: []string{"p1", "p2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitPlaylistIDs(tt.value)
			if len(got) != len(tt.want) {
				t.Fatalf("splitPlaylistIDs(%q) = %v, want %v", tt.value, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("splitPlaylistIDs(%q) = %v, want %v", tt.value, got, tt.want)
				}
			}
		})
	}
}
