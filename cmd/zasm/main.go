package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/grimdork/climate/arg"
	"github.com/grimdork/climate/cfmt"
	"github.com/grimdork/climate/human"
	"github.com/k0kubun/pp/v3"
	"github.com/samber/lo"

	"github.com/Urethramancer/zirc/assembler"
	"github.com/Urethramancer/zirc/isa"
)

func main() {
	opt := arg.New("zasm")
	opt.SetDefaultHelp(true)
	opt.SetFlag(arg.GroupDefault, "v", "verbose", "Trace the assembler stages on stderr.")
	opt.SetFlag(arg.GroupDefault, "s", "strict", "Treat a label defined twice as an error.")
	opt.SetFlag(arg.GroupDefault, "d", "dump", "Pretty-print the resolved program.")
	opt.SetFlag(arg.GroupDefault, "l", "labels", "Print the label table.")
	opt.SetPositional("ISA", "Instruction set to assemble for. Also used as the output extension.", "", true, arg.VarString)
	opt.SetPositional("INPUT", "Assembly source file.", "", true, arg.VarString)
	opt.SetPositional("OUTPUT", "Output file. Defaults to INPUT with its extension replaced by ISA.", "", false, arg.VarString)

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

	isaName := opt.GetPosString("ISA")
	input := opt.GetPosString("INPUT")
	if isaName == "" || input == "" {
		opt.PrintHelp()
		return 1
	}

	set, ok := isa.Lookup(isaName)
	if !ok {
		glog.V(1).Infof("no instruction set named %q, using zirc16", isaName)
		set = isa.Zirc16()
	}

	out, err := outputPath(input, isaName, opt.GetPosString("OUTPUT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input file: %v\n", err)
		return 1
	}
	glog.V(1).Infof("read %s from %s", human.UInt(uint64(len(data)), false), input)

	var opts []assembler.Option
	if opt.GetBool("strict") {
		opts = append(opts, assembler.WithStrictLabels())
	}
	asm, err := assembler.New(set, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	code, err := asm.Assemble(input, string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if opt.GetBool("dump") {
		printer := pp.New()
		printer.SetOutput(os.Stdout)
		printer.Println(asm.Nodes())
	}
	if opt.GetBool("labels") {
		printLabels(os.Stdout, asm.Labels())
	}

	if err := os.WriteFile(out, code, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
		return 1
	}
	glog.V(1).Infof("wrote %s to %s", human.UInt(uint64(len(code)), false), out)
	cfmt.Printf("%green%s%reset", fmt.Sprintf("Assembled file: %s (%d bytes)", out, len(code)))
	return 0
}

// outputPath returns explicit if set, otherwise input with its extension replaced by the ISA name.
func outputPath(input, isaName, explicit string) (string, error) {
	out := explicit
	if out == "" {
		name := filepath.Base(input)
		ext := filepath.Ext(name)
		if ext == name {
			ext = ""
		}
		out = strings.TrimSuffix(input, ext) + "." + strings.ToLower(isaName)
	}
	if filepath.Clean(out) == filepath.Clean(input) {
		return "", fmt.Errorf("output %s would overwrite the input", out)
	}
	return out, nil
}

// printLabels lists labels by address, then name.
func printLabels(w io.Writer, labels map[string]uint64) {
	names := lo.Keys(labels)
	sort.Slice(names, func(i, j int) bool {
		a, b := labels[names[i]], labels[names[j]]
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Fprintf(w, "%04x  %s\n", labels[name], name)
	}
}
