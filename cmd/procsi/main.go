// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/procsi/cpu"
	"github.com/ezrec/procsi/debugger"
	"github.com/ezrec/procsi/emulator"
)

func usage(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%v: %v\n", os.Args[0], fmt.Sprintf(format, args...))
	flag.Usage()
	os.Exit(2)
}

func main() {
	var compile string
	var output string
	var binary string
	var source string
	var debug bool
	var budget int
	var verbose bool

	flag.StringVar(&compile, "c", "", "assembly file to compile")
	flag.StringVar(&output, "o", "", "binary output of -c")
	flag.StringVar(&binary, "b", "", "binary file to run")
	flag.StringVar(&source, "s", "", "assembly file to run")
	flag.BoolVar(&debug, "g", false, "Run in the interactive debugger")
	flag.IntVar(&budget, "budget", emulator.DEFAULT_BUDGET, "Step budget, 0 is unlimited")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		usage("Unknown arguments: %v", flag.Args())
	}

	modes := 0
	for _, name := range []string{compile, binary, source} {
		if len(name) != 0 {
			modes++
		}
	}
	if modes != 1 {
		usage("exactly one of -c, -b or -s is required")
	}
	if len(compile) != 0 && len(output) == 0 {
		usage("-c requires -o")
	}
	if budget < 0 {
		usage("-budget must not be negative")
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	emu, err := emulator.NewEmulator(cpu.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	emu.Verbose = verbose

	// Compile a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()

		err = cpu.WriteBinary(ouf, emu.Program.Binary())
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	if len(source) != 0 {
		inf, err := os.Open(source)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
		defer inf.Close()

		err = emu.Assemble(inf)
		if err != nil {
			log.Fatalf("%v: %v", source, err)
		}
	} else {
		inf, err := os.Open(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		defer inf.Close()

		words, err := cpu.ReadBinary(inf)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}

		err = emu.LoadBinary(words)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
	}

	if debug {
		dbg := debugger.NewDebugger(emu, os.Stdin, os.Stdout)
		dbg.Budget = budget
		err = dbg.Loop()
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	_, err = emu.Run(budget)
	if err != nil {
		log.Print(emu.Cpu.String())
		log.Fatal(err)
	}

	fmt.Print(emu.Cpu.String())
}
