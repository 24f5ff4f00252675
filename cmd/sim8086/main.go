package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"sim8086/render"
	"sim8086/sim86"
	"sim8086/tracesrv"
)

func main() {
	os.Exit(main1())
}

func main1() int {
	var (
		flags = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

		inputFlag    = flags.String("input", "", "8086 binary file to read (or the first argument)")
		execFlag     = flags.Bool("exec", false, "execute instructions")
		binaryFlag   = flags.Bool("binary", false, "print the file as binary and exit")
		debugFlag    = flags.Bool("debug", false, "debug output")
		dumpFlag     = flags.Bool("dump", false, "pretty print every decoded record to stderr")
		serveFlag    = flags.String("serve", "", "serve execution traces to websocket clients on this address")
		maxStepsFlag = flags.Int("max-steps", 0, "stop after this many instructions (0 for no limit)")
	)
	flags.SetOutput(os.Stderr)
	if err := flags.Parse(os.Args[1:]); err != nil {
		return 2
	}

	log := newLogger(os.Stderr, *debugFlag)

	input := *inputFlag
	if input == "" {
		input = flags.Arg(0)
	}
	if input == "" {
		log.Error("no input file")
		flags.Usage()
		return 2
	}

	data, err := os.ReadFile(input)
	if err != nil {
		log.WithError(err).Error("reading input")
		return 1
	}

	if *binaryFlag {
		if err := render.Binary(os.Stdout, data); err != nil {
			log.WithError(err).Error("writing output")
			return 1
		}
		return 0
	}

	opts := sim86.Options{
		Simulate: *execFlag || *serveFlag != "",
		MaxSteps: *maxStepsFlag,
		Logger:   log,
	}

	if *serveFlag != "" {
		srv := tracesrv.New(input, data, opts)
		if err := srv.ListenAndServe(*serveFlag); err != nil {
			log.WithError(err).Error("trace server")
			return 1
		}
		return 0
	}

	var dump *pp.PrettyPrinter
	if *dumpFlag {
		dump = pp.New()
		dump.SetOutput(os.Stderr)
		dump.SetColoringEnabled(isTerminal(os.Stderr))
	}

	if err := run(os.Stdout, input, data, opts, *debugFlag, dump); err != nil {
		log.WithError(err).Error("simulation stopped")
		return 1
	}
	return 0
}

func run(out io.Writer, name string, data []byte, opts sim86.Options, debug bool, dump *pp.PrettyPrinter) error {
	sess, err := sim86.NewSession(bytes.NewReader(data), opts)
	if err != nil {
		return err
	}

	fmt.Fprint(out, render.Header(name))

	err = sess.Run(func(rec *sim86.Record) error {
		line := render.Record(rec)

		// Print debug info
		if debug {
			end := rec.Offset + int64(rec.Length)
			line += render.Bytes(data[rec.Offset:end])
		}

		if dump != nil {
			if _, err := dump.Println(rec); err != nil {
				return err
			}
		}

		_, err := fmt.Fprintln(out, line)
		return err
	})

	var decErr *sim86.DecodeError
	if errors.As(err, &decErr) && debug {
		fmt.Fprintf(out, "; stopped at offset %d\n", decErr.Offset)
	}
	if err != nil {
		return err
	}

	if skipped := sess.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(out, "; skipped %d unsupported instruction(s)\n", len(skipped))
	}

	if opts.Simulate {
		fmt.Fprintf(out, "\n%s", render.Final(sess.State()))
	}
	return nil
}

func newLogger(out *os.File, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:    !isTerminal(out),
		DisableTimestamp: true,
	})
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
