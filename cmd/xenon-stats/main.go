package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/lestrrat-go/xenon"
	"github.com/lestrrat-go/xenon/sax"
)

type cmdopts struct {
	Version bool `long:"version"`
}

type stats struct {
	elements   int
	attributes int
	textBytes  int
	depth      int
	maxDepth   int
}

func (st *stats) handler() *sax.Callbacks {
	h := sax.New()
	h.StartElementHandler = func(_ context.Context, elem sax.Element) error {
		st.elements++
		st.attributes += len(elem.Attributes)
		st.depth++
		if st.depth > st.maxDepth {
			st.maxDepth = st.depth
		}
		return nil
	}
	h.EndElementHandler = func(_ context.Context, _ sax.Element) error {
		st.depth--
		return nil
	}
	h.CharactersHandler = func(_ context.Context, content []byte) error {
		st.textBytes += len(content)
		return nil
	}
	h.CDATABlockHandler = func(_ context.Context, content []byte) error {
		st.textBytes += len(content)
		return nil
	}
	return h
}

func main() {
	os.Exit(_main())
}

func showVersion() {
	fmt.Printf("xenon-stats: using xenon version %s\n", xenon.Version)
}

func showUsage() {
	fmt.Printf(`Usage : xenon-stats XMLfiles ...
	Stream the XML files and report per-document statistics
	--version : display the version of the XML library used
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
	switch {
	case len(args) > 0:
		for _, f := range args {
			fh, err := os.Open(f)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
				return 1
			}
			err = report(ctx, f, fh)
			fh.Close()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", err)
				return 1
			}
		}
	case stdinPiped():
		if err := report(ctx, "(stdin)", os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			return 1
		}
	default:
		showUsage()
		return 1
	}
	return 0
}

func report(ctx context.Context, name string, in io.Reader) error {
	st := &stats{}
	d := xenon.NewDispatcher(st.handler())
	if err := d.RunReader(ctx, in); err != nil {
		return err
	}
	fmt.Printf("%s: %d elements, %d attributes, %d bytes of text, max depth %d\n",
		name, st.elements, st.attributes, st.textBytes, st.maxDepth)
	return nil
}

func stdinPiped() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice == 0
}
