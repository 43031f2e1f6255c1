// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ezrec/synacor/cpu"
	"github.com/ezrec/synacor/emulator"
	"github.com/ezrec/synacor/io"
)

// defineList collects -D NAME=VALUE assembler predefines.
type defineList map[string]string

func (dl defineList) String() string { return fmt.Sprintf("%v", map[string]string(dl)) }
func (dl defineList) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || len(name) == 0 {
		return fmt.Errorf("%q is not NAME=VALUE", s)
	}
	dl[name] = value
	return nil
}

func main() {
	var binary string
	var compile string
	var save string
	var input string
	var output string
	var trace string
	var peek int
	var verbose bool
	var noraw bool
	defines := defineList{}

	flag.StringVar(&binary, "b", "", "Binary program image to run")
	flag.StringVar(&compile, "c", "", "Assembly file to compile")
	flag.StringVar(&save, "s", "", "Save the program image to this file, do not execute")
	flag.StringVar(&input, "i", "-", "Console input")
	flag.StringVar(&output, "o", "-", "Console output")
	flag.StringVar(&trace, "t", "", "Write an instruction trace to this file")
	flag.IntVar(&peek, "peek", 0, "Words to peek before each instruction when tracing")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&noraw, "noraw", false, "Disable raw terminal input")
	flag.Var(defines, "D", "Assembler predefine `NAME=VALUE` (repeatable)")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if (len(binary) == 0) == (len(compile) == 0) {
		log.Fatalf("%v: exactly one of -b or -c is required", os.Args[0])
	}

	prog := &cpu.Program{}

	if len(binary) != 0 {
		inf, err := os.Open(binary)
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
		_, err = prog.ReadFrom(inf)
		inf.Close()
		if err != nil {
			log.Fatalf("%v: %v", binary, err)
		}
	}

	// Compile a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for name, value := range defines {
			asm.Predefine(name, value)
		}
		prog, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	}

	if len(save) != 0 {
		ouf, err := os.Create(save)
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		_, err = prog.WriteTo(ouf)
		if err == nil {
			err = ouf.Close()
		}
		if err != nil {
			log.Fatalf("%v: %v", save, err)
		}
		return
	}

	emu := emulator.NewEmulator()
	emu.Program = prog
	emu.Verbose = verbose
	emu.PeekWords = peek

	if input == "-" {
		emu.Terminal.Input = bufio.NewReader(os.Stdin)
		if !noraw {
			tios, err := io.NewTermios(os.Stdin)
			if err == nil {
				emu.Terminal.Raw = tios
			} else if verbose {
				log.Printf("raw input disabled: %v", err)
			}
		}
	} else {
		inf, err := os.Open(input)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
		defer inf.Close()
		emu.Terminal.Input = bufio.NewReader(inf)
	}

	if output == "-" {
		emu.Terminal.Output = bufio.NewWriter(os.Stdout)
	} else {
		ouf, err := os.Create(output)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		defer ouf.Close()
		emu.Terminal.Output = bufio.NewWriter(ouf)
	}

	err := execute(emu, trace)
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
}

// execute runs the loaded program, optionally tracing every fetch.
func execute(emu *emulator.Emulator, trace string) (err error) {
	if len(trace) != 0 {
		var tf *os.File
		tf, err = os.Create(trace)
		if err != nil {
			return
		}
		defer tf.Close()
		tw := bufio.NewWriter(tf)
		defer tw.Flush()
		emu.Cpu.Tracer = &emulator.LogTracer{Logger: log.New(tw, "", 0)}
	}

	err = emu.Reset()
	if err != nil {
		return
	}

	outcome, err := emu.Run()
	if err != nil {
		return
	}

	if emu.Verbose {
		log.Printf("%v after %d instructions", outcome, emu.Ticks())
	}

	return
}
