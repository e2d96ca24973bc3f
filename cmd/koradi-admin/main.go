package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/koradi/koradi-admin/cmd/koradi-admin/internal/commands"
	"github.com/koradi/koradi-admin/internal/bootstrap"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug logging."`
		Version kong.VersionFlag
		Serve   commands.ServeCmd `cmd:"" default:"withargs" help:"Start the admin service."`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	if err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version}); err != nil {
		cmd.Errorf("%s", err)
		os.Exit(bootstrap.ExitCode(err))
	}
}
