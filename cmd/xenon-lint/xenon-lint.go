package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/lestrrat-go/xenon"
	"github.com/lestrrat-go/xenon/schema"
)

type cmdopts struct {
	Format   bool   `long:"format"`
	NoBlanks bool   `long:"noblanks"`
	Schema   string `long:"schema"`
	Version  bool   `long:"version"`
}

func main() {
	os.Exit(_main())
}

func showVersion() {
	fmt.Printf("xenon-lint: using xenon version %s\n", xenon.Version)
}

func showUsage() {
	fmt.Printf(`Usage : xenon-lint [options] XMLfiles ...
	Parse the XML files and output the result of the parsing
	--format   : reindent the output
	--noblanks : drop ignorable whitespace between elements
	--schema F : validate the documents against the schema in file F
	--version  : display the version of the XML library used
`)
}

func _main() int {
	opts := cmdopts{}
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		showUsage()
		return 1
	}

	if opts.Version {
		showVersion()
		return 0
	}

	ctx := context.Background()

	var v *schema.Validator
	if opts.Schema != "" {
		buf, err := os.ReadFile(opts.Schema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		s, err := schema.Parse(ctx, buf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		v = schema.NewValidator(s)
	}

	inputCh := make(chan io.Reader)
	errCh := make(chan error, 1)
	switch {
	case len(args) > 0: // filename present
		go func() {
			defer close(inputCh)
			for _, f := range args {
				fh, err := os.Open(f)
				if err != nil {
					errCh <- err
					return
				}
				inputCh <- fh
			}
		}()
	case stdinPiped():
		go func() {
			defer close(inputCh)
			inputCh <- os.Stdin
		}()
	default:
		showUsage()
		return 1
	}

	var parseOptions []xenon.Option
	if opts.NoBlanks {
		parseOptions = append(parseOptions, xenon.WithKeepBlanks(false))
	}
	var dumpOptions []xenon.DumpOption
	if opts.Format {
		dumpOptions = append(dumpOptions, xenon.WithIndent("  "))
	}

	ret := 0
	for in := range inputCh {
		buf, err := io.ReadAll(in)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
		doc, err := xenon.Parse(ctx, buf, parseOptions...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}

		if v != nil {
			rpt, err := v.ValidateDocument(doc)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
				return 1
			}
			for _, viol := range rpt.Violations() {
				fmt.Fprintf(os.Stderr, "%s\n", viol)
			}
			if !rpt.OK() {
				ret = 1
			}
		}

		d := xenon.NewDumper(dumpOptions...)
		if err := d.DumpDoc(os.Stdout, doc); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	}

	select {
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "%s", err)
		return 1
	default:
	}

	return ret
}

func stdinPiped() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}
