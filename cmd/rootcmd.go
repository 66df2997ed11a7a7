package rootcmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// Run parses the command line into cmd and runs the selected command.
// Flags can also be set from MLABNS_* environment variables and from a
// YAML configuration file.
func Run(cmd any, name, description string, configPaths ...string) {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	parser, err := kong.New(cmd,
		kong.Name(name),
		kong.Description(description),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.DefaultEnvars("MLABNS"),
		kong.Configuration(YAML, configPaths...),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree: true,
		}),
		kong.UsageOnError(),
	)
	if err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}

	kctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		parser.FatalIfErrorf(err)
	}

	err = kctx.Run()
	parser.FatalIfErrorf(err)
}

// YAML is a kong configuration loader for YAML files, keyed on flag
// names the same way as kong.JSON.
func YAML(r io.Reader) (kong.Resolver, error) {
	var values map[string]any
	err := yaml.NewDecoder(r).Decode(&values)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if values == nil {
		values = map[string]any{}
	}

	b, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}

	return kong.JSON(bytes.NewReader(b))
}
