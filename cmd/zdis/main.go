package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/grimdork/climate/arg"
	"github.com/grimdork/climate/cfmt"
	"github.com/grimdork/climate/env"
	"github.com/grimdork/climate/human"
	"github.com/grimdork/climate/paths"

	"github.com/Urethramancer/zirc/disassembler"
	"github.com/Urethramancer/zirc/isa"
)

func main() {
	opt := arg.New("zdis")
	opt.SetDefaultHelp(true)
	opt.SetFlag(arg.GroupDefault, "v", "verbose", "Trace the disassembler on stderr.")
	opt.SetOption(arg.GroupDefault, "", "isa", "Instruction set of the image.", env.Get("ZIRC_ISA", "zirc16"), false, arg.VarString, nil)
	opt.SetOption(arg.GroupDefault, "", "origin", "Word address the image is loaded at.", 0, false, arg.VarInt, nil)
	opt.SetPositional("INPUT", "Binary image to disassemble.", "", true, arg.VarString)
	opt.SetPositional("OUTPUT", "Output file. Prints to stdout if left out.", "", false, arg.VarString)

	err := opt.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, arg.ErrNoArgs) {
			opt.PrintHelp()
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(opt))
}

func run(opt *arg.Options) int {
	flag.Set("logtostderr", "true")
	if opt.GetBool("verbose") {
		flag.Set("v", "2")
	}
	defer glog.Flush()

	input := opt.GetPosString("INPUT")
	if input == "" {
		opt.PrintHelp()
		return 1
	}
	if !paths.FileExists(input) {
		fmt.Fprintf(os.Stderr, "Error reading input file: %s does not exist\n", input)
		return 1
	}

	name := opt.GetString("isa")
	set, ok := isa.Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown instruction set %q\n", name)
		return 1
	}

	origin := opt.GetInt("origin")
	if origin < 0 {
		fmt.Fprintf(os.Stderr, "Error: negative origin %d\n", origin)
		return 1
	}

	// Read the binary file directly. Do NOT modify it.
	code, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		return 1
	}
	glog.V(1).Infof("disassembling %s of %s code from %s", human.UInt(uint64(len(code)), false), set.Name(), input)

	text, err := disassembler.Disassemble(code, set, uint64(origin))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Disassembly error: %v\n", err)
		return 1
	}

	output := opt.GetPosString("OUTPUT")
	if output == "" {
		fmt.Print(text)
		return 0
	}

	if err := os.WriteFile(output, []byte(text), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		return 1
	}
	cfmt.Printf("%green%s%reset", fmt.Sprintf("Disassembly written to %s", output))
	return 0
}
