package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/npillmayer/clasp/bytecode"
	"github.com/npillmayer/clasp/compiler"
	"github.com/npillmayer/clasp/syntax"
	"github.com/npillmayer/clasp/vm"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/pterm/pterm"
)

func main() {
	// set up logging
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	confpath := flag.String("config", "clasp.toml", "Configuration file")
	tlevel := flag.String("trace", "", "Trace level [Debug|Info|Error], overrides configuration")
	output := flag.String("o", "", "Write the compiled script as an image to this file")
	image := flag.String("run", "", "Run a compiled image")
	dis := flag.Bool("dis", false, "Disassemble instead of running")
	flag.Parse()
	conf, err := LoadConfig(*confpath)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	if *tlevel != "" {
		conf.Trace = *tlevel
	}
	setTraceLevel(conf.Trace)
	tracer().Infof("Trace level is %s", conf.Trace)
	//
	switch {
	case *image != "":
		err = runImage(*image, *dis, conf)
	case flag.NArg() > 0:
		err = compileScript(flag.Arg(0), *output, *dis, conf)
	default:
		err = REPL(conf)
	}
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(1)
	}
}

// compileScript compiles a script file. The executable is written to output
// if given, else it is run.
func compileScript(path, output string, dis bool, conf *Config) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	session := NewSession()
	session.pending = string(source)
	forest, err := syntax.Parse(string(source))
	if err == nil {
		var exe *bytecode.Executable
		if exe, err = compiler.Compile(forest); err == nil {
			return emit(exe, output, dis, conf)
		}
	}
	for _, msg := range session.Explain(err) {
		pterm.Error.Printf("%s:%s\n", path, msg)
	}
	return fmt.Errorf("cannot compile %s", path)
}

// runImage loads a compiled image and runs it.
func runImage(path string, dis bool, conf *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	exe, err := bytecode.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", path, err)
	}
	return emit(exe, "", dis, conf)
}

func emit(exe *bytecode.Executable, output string, dis bool, conf *Config) error {
	switch {
	case dis:
		return exe.Disassemble(os.Stdout)
	case output != "":
		data, err := bytecode.Marshal(exe)
		if err != nil {
			return err
		}
		tracer().Infof("writing image %s (%d bytes)", output, len(data))
		return os.WriteFile(output, data, 0644)
	}
	boxes := vm.NewMailboxes()
	opts := append(conf.VMOptions(), vm.WithDeliverer(boxes))
	result, err := vm.New(opts...).Call(exe, 0)
	if err != nil {
		return err
	}
	for _, dest := range boxes.Destinations() {
		for _, m := range boxes.Drain(dest) {
			pterm.Info.Printf("%s <- %v\n", dest, m)
		}
	}
	if !result.IsVoid() {
		pterm.Println(result.String())
	}
	return nil
}
