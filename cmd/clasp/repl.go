package main

import (
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
)

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  "  >>",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "  Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// REPL starts interactive mode.
func REPL(conf *Config) error {
	rl, err := readline.New(conf.Prompt)
	if err != nil {
		return err
	}
	defer rl.Close()
	pterm.Info.Println("Welcome to clasp")
	tracer().Infof("Quit with <ctrl>D or :quit")
	session := NewSession(conf.VMOptions()...)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := command(session, line); quit {
				break
			}
			continue
		}
		outcome, err := session.Eval(line)
		if err != nil {
			for _, msg := range session.Explain(err) {
				pterm.Error.Println(msg)
			}
			continue
		}
		for _, d := range outcome.Sent {
			pterm.Info.Printf("%s <- %v\n", d.Destination, d.Message)
		}
		if !outcome.Value.IsVoid() {
			pterm.Println(outcome.Value.String())
		}
	}
	println("Good bye!")
	return nil
}

// command executes a session command. It returns true if the session should
// end.
func command(session *Session, line string) bool {
	switch strings.Fields(line)[0] {
	case ":quit", ":q":
		return true
	case ":tree":
		ll := session.Tree()
		if len(ll) == 0 {
			pterm.Info.Println("empty session")
			break
		}
		root := pterm.NewTreeFromLeveledList(ll)
		if err := pterm.DefaultTree.WithRoot(root).Render(); err != nil {
			tracer().Errorf("%v", err)
		}
	case ":dis":
		if err := session.Disassemble(os.Stdout); err != nil {
			pterm.Error.Println(err.Error())
		}
	case ":source":
		pterm.Println(session.Source())
	case ":reset":
		session.Reset()
	default:
		pterm.Error.Printf("unknown command %s; try :tree, :dis, :source, :reset or :quit\n", line)
	}
	return false
}
