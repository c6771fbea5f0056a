package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// CommandRunner executes a CommandSpec against a build context. Tests
// substitute a fake implementation to avoid touching the filesystem or
// spawning real compiler processes.
type CommandRunner interface {
	Run(ctx context.Context, cmd CommandSpec, bc BuildContext) error
}

// OSCommandRunner runs commands through os/exec, inheriting the build
// directory as the working directory.
type OSCommandRunner struct{}

func (OSCommandRunner) Run(ctx context.Context, cmd CommandSpec, bc BuildContext) error {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	c.Dir = bc.BuildDir
	c.Env = append(os.Environ(), cmd.Env...)
	out, err := c.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w\n%s", cmd.Program, err, out)
	}
	return nil
}

func wrapBackendErr(backendID, action string, err error) error {
	if err == nil {
		return &ValidationError{Stage: backendID, Detail: action}
	}
	return fmt.Errorf("%s: %s: %w", backendID, action, err)
}

func flattenCommands(cmds []CommandSpec) []string {
	var out []string
	for _, c := range cmds {
		out = append(out, append([]string{c.Program}, c.Args...)...)
	}
	return out
}

func stringSliceOpt(opts Options, key string) []string {
	v, ok := opts[key]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	default:
		return nil
	}
}

func stringOpt(opts Options, key, def string) string {
	v, ok := opts[key]
	if !ok {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func boolOpt(opts Options, key string, def bool) bool {
	v, ok := opts[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func intOpt(opts Options, key string, def int) int {
	v, ok := opts[key]
	if !ok {
		return def
	}
	if n, ok := v.(int); ok {
		return n
	}
	return def
}

func mapStringOpt(opts Options, key string) map[string]string {
	v, ok := opts[key]
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]string); ok {
		return m
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
