// Command binks is the CLI for the binks local agentic runtime: a
// thin wrapper over pkg/agent, pkg/workflow, pkg/pool and pkg/daemon
// (§6).
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/binkshq/binks/pkg/config"
)

// CLI defines the top-level command-line interface (§6's "CLI surface
// (core-relevant subset)").
type CLI struct {
	OllamaURL   string `name:"ollama-url" help:"Ollama-compatible base URL." env:"OLLAMA_URL"`
	Model       string `short:"m" name:"model" help:"Model name." env:"OLLAMA_MODEL"`
	Verbose     int    `short:"v" type:"counter" help:"Increase verbosity (repeatable: -v info, -vv debug, -vvv trace)."`
	MetricsAddr string `name:"metrics-addr" help:"Prometheus metrics listen address (mcps start only)."`

	Chat     ChatCmd     `cmd:"" help:"Single-shot chat with the configured model."`
	Agent    AgentCmd    `cmd:"" help:"Interactive or one-shot tool-using agent loop."`
	Tools    ToolsCmd    `cmd:"" help:"List tools available from configured capability servers."`
	Call     CallCmd     `cmd:"" help:"Call a tool directly."`
	Mcps     McpsCmd     `cmd:"" help:"Supervisor daemon lifecycle."`
	Workflow WorkflowCmd `cmd:"" help:"Run and inspect multi-agent workflows."`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// exitCodeError carries a specific process exit code (§6: "non-zero
// from workflow run when the workflow terminated failed or
// cancelled"), distinct from the generic exit(1) every other error
// maps to.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	return &exitCodeError{code: code, err: err}
}

func run(args []string) int {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("binks"),
		kong.Description("binks - local agentic LLM runtime"),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	initLogger(cli.Verbose)

	cc, err := newCommandContext(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer cc.Close()

	if err := kctx.Run(cc); err != nil {
		if ec, ok := asExitCodeError(err); ok {
			fmt.Fprintln(os.Stderr, ec.err)
			return ec.code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func asExitCodeError(err error) (*exitCodeError, bool) {
	for err != nil {
		if ec, ok := err.(*exitCodeError); ok {
			return ec, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
