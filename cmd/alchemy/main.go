// Command alchemy is an offline harness for the mastering engine.
//
// Usage:
//
//	alchemy render [--signal sine|noise|drums] [--seconds 5] [--level -6] [--config cfg.toml]
//	alchemy analyze [--quality draft|good|best] [--factor 4]
//	alchemy version
//
// render streams synthetic material through the engine block by block and
// prints the meters, gain reduction, governor load and diagnostics.
// analyze measures image and alias rejection of the oversampler.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

var version = "0.1.0"

// Globals are flags shared by every command.
type Globals struct {
	Verbose bool `short:"v" help:"Log engine activity to stderr"`
}

// Logger returns a stderr logger at warn level, or debug when verbose.
func (g *Globals) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)

	if g.Verbose {
		l.SetLevel(logrus.DebugLevel)
	}

	return l
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Render  RenderCmd  `cmd:"" help:"Render synthetic material through the engine and report meters"`
	Analyze AnalyzeCmd `cmd:"" help:"Measure oversampler image and alias rejection"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run implements the version command.
func (VersionCmd) Run(*Globals) error {
	printVersion(version)
	return nil
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("alchemy"),
		kong.Description("Real-time mastering engine harness"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	if err := ctx.Run(&cli.Globals); err != nil {
		printError(err.Error())
		os.Exit(1)
	}
}
