package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate runs Load away from any real config file.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Host.Address != "tcp://127.0.0.1:1999" {
		t.Errorf("Host.Address = %q", c.Host.Address)
	}
	if c.Host.Timeout != 30*time.Second {
		t.Errorf("Host.Timeout = %s, want 30s", c.Host.Timeout)
	}
	if c.Document.Tolerance != 0.001 || c.Document.AngleTolerance != 1 {
		t.Errorf("Document = %+v", c.Document)
	}
	if c.Document.MeshCells != 48 {
		t.Errorf("Document.MeshCells = %d, want 48", c.Document.MeshCells)
	}
	if c.Script.Timeout != 5*time.Second {
		t.Errorf("Script.Timeout = %s, want 5s", c.Script.Timeout)
	}
	if l, _ := c.LogLevel(); l != slog.LevelInfo {
		t.Errorf("LogLevel() = %v, want info", l)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	body := `
host:
  address: ws://cad.local:8080/host
  timeout: 2s
document:
  tolerance: 0.01
  angle_tolerance: 0.5
  mesh_cells: 32
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CADMCP_SERVER_NAME", "shop")
	t.Setenv("CADMCP_DOCUMENT_TOLERANCE", "0.02")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Host.Address != "ws://cad.local:8080/host" || c.Host.Timeout != 2*time.Second {
		t.Errorf("Host = %+v", c.Host)
	}
	if c.Server.Name != "shop" {
		t.Errorf("Server.Name = %q, want env override", c.Server.Name)
	}
	if c.Document.Tolerance != 0.02 {
		t.Errorf("Document.Tolerance = %v, env should win over file", c.Document.Tolerance)
	}
	if c.Document.AngleTolerance != 0.5 || c.Document.MeshCells != 32 {
		t.Errorf("Document = %+v", c.Document)
	}
	if l, _ := c.LogLevel(); l != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug", l)
	}
}

func TestLoadWorkingDirectoryFile(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("cadmcp.yaml", []byte("server:\n  name: bench\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Name != "bench" {
		t.Errorf("Server.Name = %q, want bench", c.Server.Name)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "missing named file", file: "nope.yaml"},
		{name: "zero tolerance", env: map[string]string{"CADMCP_DOCUMENT_TOLERANCE": "0"}},
		{name: "bad level", env: map[string]string{"CADMCP_LOG_LEVEL": "loud"}},
		{name: "tiny mesh", env: map[string]string{"CADMCP_DOCUMENT_MESH_CELLS": "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = filepath.Join(t.TempDir(), tt.file)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}
