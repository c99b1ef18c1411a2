// Package main provides the gradflow CLI: small training demos exercising the
// graph, optimizers and model packages.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"version", "Show version", func([]string) error {
		fmt.Printf("gradflow %s\n", version)
		return nil
	}},
	{"xor", "Train a 2-layer perceptron on XOR", runXOR},
	{"linear", "Fit y = W*x + b on synthetic data", runLinear},
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "gradflow %s\n\nUsage: gradflow [flags] <command> [command flags]\n\nCommands:\n", version)
	for _, c := range commands {
		fmt.Fprintf(out, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()
	defer klog.Flush()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	name := flag.Arg(0)
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(flag.Args()[1:]); err != nil {
			klog.Exitf("%s: %+v", name, err)
		}
		return
	}
	klog.Errorf("unknown command %q", name)
	usage()
	os.Exit(2)
}
