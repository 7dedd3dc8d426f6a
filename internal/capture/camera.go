// Package capture adapts the image capture and classifier boundaries.
package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cashm/note-sorter/internal/domain"
)

// Camera produces one cropped still frame per call and returns a reference
// (file path) the classifier can consume.
type Camera interface {
	Capture(ctx context.Context) (string, error)
}

// ExecCamera shells out to an external still-capture command. The command's
// args may contain the {path} placeholder; when absent the output path is
// appended as the final argument.
type ExecCamera struct {
	Command string
	Args    []string
	Dir     string
}

// Capture runs the capture command and returns the frame path.
func (c *ExecCamera) Capture(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", domain.WrapEngineError(domain.ErrCaptureFailed.Code, "create capture dir", err)
	}

	name := fmt.Sprintf("detect_%s_%s.jpg", time.Now().Format("20060102_150405"), uuid.NewString()[:8])
	path := filepath.Join(c.Dir, name)

	args := make([]string, 0, len(c.Args)+1)
	replaced := false
	for _, a := range c.Args {
		if strings.Contains(a, "{path}") {
			a = strings.ReplaceAll(a, "{path}", path)
			replaced = true
		}
		args = append(args, a)
	}
	if !replaced {
		args = append(args, path)
	}

	cmd := exec.CommandContext(ctx, c.Command, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", domain.WrapEngineError(domain.ErrCaptureFailed.Code,
			fmt.Sprintf("%s: %s", c.Command, strings.TrimSpace(string(out))), err)
	}

	if _, err := os.Stat(path); err != nil {
		return "", domain.WrapEngineError(domain.ErrCaptureFailed.Code, "capture produced no frame", err)
	}
	return path, nil
}
