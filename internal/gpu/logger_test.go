//go:build !nogpu

package gpu

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestAcceleratorSetLogger(t *testing.T) {
	t.Cleanup(func() { setLogger(nil) })

	var buf bytes.Buffer
	a := &Accelerator{}
	a.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	slogger().Info("pipelines ready")
	if out := buf.String(); !strings.Contains(out, "component=gpu") || !strings.Contains(out, "pipelines ready") {
		t.Errorf("log output = %q", out)
	}

	a.SetLogger(nil)
	if slogger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) left an enabled logger")
	}
}
