package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force, os.Stdout)
}

// RunInit writes the example configuration and creates the content and
// static directories it points at.
func RunInit(configPath string, force bool, out io.Writer) error {
	_, _ = fmt.Fprintf(out, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	defaults := config.Default()
	base := filepath.Dir(configPath)
	for _, dir := range []string{defaults.Content.Dir, defaults.Content.StaticDir} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			return ferrors.FileSystemError(err, "failed to create directory").
				WithContext("path", dir).
				Build()
		}
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
