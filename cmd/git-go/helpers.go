package main

import (
	"fmt"
	"io"

	mingit "github.com/Nivl/mingit"
	"github.com/Nivl/mingit/ginternals/config"
)

func loadRepository(cfg *globalFlags) (*mingit.Repository, error) {
	p, err := config.LoadConfig(cfg.env, config.LoadConfigOptions{
		WorkingDirectory: cfg.C.String(),
	})
	if err != nil {
		return nil, err
	}

	return mingit.OpenRepositoryWithParams(p, mingit.OpenOptions{
		Env: cfg.env,
	})
}

func fprintln(quiet bool, out io.Writer, msg ...interface{}) {
	if !quiet {
		fmt.Fprintln(out, msg...)
	}
}

func fprintf(quiet bool, out io.Writer, format string, a ...interface{}) {
	if !quiet {
		fmt.Fprintf(out, format, a...)
	}
}
