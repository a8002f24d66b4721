package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProductionModeIsNop(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if err := Initialize("", Options{DebugMode: false}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	logger := Get(CategoryChecker)
	if logger == nil {
		t.Fatal("Get returned nil")
	}
	logger.Infof("should go nowhere")

	if _, err := os.Stat(".printguard"); !os.IsNotExist(err) {
		t.Error("production mode must not create a log directory")
	}
}

func TestDebugModeWritesCategoryFile(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	ws := t.TempDir()
	if err := Initialize(ws, Options{DebugMode: true, Level: "debug"}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Get(CategoryBoot).Infof("starting run %s", "abc")
	Sync()

	data, err := os.ReadFile(filepath.Join(ws, ".printguard", "logs", "boot.log"))
	if err != nil {
		t.Fatalf("boot.log not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("boot.log is empty")
	}
}

func TestDisabledCategory(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	ws := t.TempDir()
	err := Initialize(ws, Options{
		DebugMode:  true,
		Categories: map[string]bool{"watch": false},
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	Get(CategoryWatch).Infof("dropped")
	Sync()

	if _, err := os.Stat(filepath.Join(ws, ".printguard", "logs", "watch.log")); !os.IsNotExist(err) {
		t.Error("disabled category must not create a log file")
	}
}
