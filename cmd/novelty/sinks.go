package main

import (
	"fmt"

	"github.com/crimson-sun/novelty/internal/alertout"
	"github.com/crimson-sun/novelty/internal/alertout/async"
	"github.com/crimson-sun/novelty/internal/alertout/file"
	"github.com/crimson-sun/novelty/internal/alertout/multi"
	"github.com/crimson-sun/novelty/internal/alertout/stdout"
	"github.com/crimson-sun/novelty/internal/alertout/webhook"
	"github.com/crimson-sun/novelty/internal/config"
)

// buildOutput wires every configured sink into a single alertout.Output:
// each sink is wrapped for async delivery so a slow or stuck sink never
// holds up the caller. A single sink is returned as is; any other number
// of sinks fans out through multi.Multi.
func buildOutput(cfgs []config.SinkConfig, verbosity alertout.Verbosity) (alertout.Output, error) {
	var outs []alertout.Output
	for _, c := range cfgs {
		out, err := buildSink(c, verbosity)
		if err != nil {
			return nil, err
		}
		outs = append(outs, async.New(out))
	}
	if len(outs) == 1 {
		return outs[0], nil
	}
	return multi.New(outs...), nil
}

func buildSink(c config.SinkConfig, verbosity alertout.Verbosity) (alertout.Output, error) {
	switch c.Type {
	case "stdout":
		return stdout.New(verbosity, c.Pretty), nil
	case "file":
		var opts []file.Option
		if c.MaxSizeMB > 0 {
			opts = append(opts, file.WithMaxSize(int64(c.MaxSizeMB)*1024*1024))
		}
		return file.New(c.Path, verbosity, opts...)
	case "webhook":
		var opts []webhook.Option
		if c.Timeout > 0 {
			opts = append(opts, webhook.WithTimeout(c.Timeout))
		}
		return webhook.New(c.URL, opts...), nil
	default:
		return nil, fmt.Errorf("sinks: unknown sink type %q", c.Type)
	}
}

func parseVerbosity(s string) alertout.Verbosity {
	switch s {
	case "minimal":
		return alertout.Minimal
	case "full":
		return alertout.Full
	default:
		return alertout.Standard
	}
}
