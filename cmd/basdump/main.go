// Command basdump prints a summary of a bas.h5 or bax.h5 file and exports
// its reads as FASTA or FASTQ.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/robert-malhotra/go-bash5/bash5"
	"github.com/robert-malhotra/go-bash5/store"
)

type config struct {
	path    string
	n       int
	reads   string
	out     string
	gzip    bool
	fastq   bool
	metric  string
	tree    bool
	verbose bool
}

func main() {
	var cfg config
	flag.IntVar(&cfg.n, "n", 10, "number of sequencing holes to list (0 for none, -1 for all)")
	flag.StringVar(&cfg.reads, "reads", "none", "reads to export: subreads, ccs, raw or none")
	flag.StringVar(&cfg.out, "o", "", "export file (default stdout)")
	flag.BoolVar(&cfg.gzip, "gzip", false, "gzip the export")
	flag.BoolVar(&cfg.fastq, "fastq", false, "export FASTQ instead of FASTA")
	flag.StringVar(&cfg.metric, "metric", "", "ZMW metric to print for each listed hole")
	flag.BoolVar(&cfg.tree, "tree", false, "print the group and dataset tree of the file and exit")
	flag.BoolVar(&cfg.verbose, "v", false, "log debug output to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: basdump [flags] <file.bas.h5>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg.path = flag.Arg(0)

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	opts := []bash5.Option{bash5.WithLogger(bash5.NewTextLogger(level))}

	if err := run(cfg, os.Stdout, store.OpenHDF5, opts...); err != nil {
		fmt.Fprintf(os.Stderr, "basdump: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, stdout io.Writer, open store.Opener, opts ...bash5.Option) error {
	if cfg.tree {
		s, err := open(cfg.path)
		if err != nil {
			return err
		}
		defer s.Close()
		fmt.Fprintf(stdout, "=== %s ===\n", cfg.path)
		walkGroup(stdout, s, "/", "", 0)
		return nil
	}

	r, err := bash5.Open(cfg.path, append(opts, bash5.WithOpener(open))...)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := summarize(stdout, r, cfg); err != nil {
		return err
	}
	if cfg.reads == "none" {
		return nil
	}
	return export(stdout, r, cfg)
}

func summarize(w io.Writer, r *bash5.Reader, cfg config) error {
	fmt.Fprintf(w, "%s\n", r)
	fmt.Fprintf(w, "  Movie: %s\n", r.MovieName())
	fmt.Fprintf(w, "  Parts: %d (multipart=%v)\n", len(r.Parts()), r.IsMultiPart())
	fmt.Fprintf(w, "  Raw basecalls: %v\n", r.HasRawBasecalls())
	fmt.Fprintf(w, "  Consensus basecalls: %v\n", r.HasConsensusBasecalls())
	fmt.Fprintf(w, "  Sequencing ZMWs: %d of %d\n", r.Len(), len(r.AllSequencingZmws()))

	listed := 0
	for z, err := range r.Zmws() {
		if cfg.n >= 0 && listed >= cfg.n {
			break
		}
		if err != nil {
			return err
		}
		hq, err := z.HQRegion()
		if err != nil {
			return err
		}
		line := fmt.Sprintf("  %s hq=%s", z.Name(), hq)
		if cfg.metric != "" {
			v, err := z.Metric(cfg.metric)
			if err != nil {
				return err
			}
			if v.Scalar() {
				line += fmt.Sprintf(" %s=%g", cfg.metric, v.Float64())
			} else {
				line += fmt.Sprintf(" %s=%v", cfg.metric, v.Values())
			}
		}
		fmt.Fprintln(w, line)
		listed++
	}
	return nil
}

func export(stdout io.Writer, r *bash5.Reader, cfg config) (err error) {
	var w io.Writer = stdout
	if cfg.out != "" {
		var f *os.File
		if f, err = os.Create(cfg.out); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		w = f
	}
	if cfg.gzip {
		zw := gzip.NewWriter(w)
		defer func() {
			err = errors.Join(err, zw.Close())
		}()
		w = zw
	}
	bw := bufio.NewWriter(w)
	defer func() {
		err = errors.Join(err, bw.Flush())
	}()

	for z, err := range r.Zmws() {
		if err != nil {
			return err
		}
		reads, err := selectReads(z, cfg.reads)
		if err != nil {
			return err
		}
		for _, read := range reads {
			var rec string
			if cfg.fastq {
				rec, err = read.FASTQ()
			} else {
				rec, err = read.FASTA()
			}
			if err != nil {
				return err
			}
			if _, err := bw.WriteString(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func selectReads(z *bash5.Zmw, kind string) ([]*bash5.Read, error) {
	switch kind {
	case "subreads":
		return z.Subreads()
	case "raw":
		read, err := z.Read(nil, nil)
		if err != nil {
			return nil, err
		}
		if read.Len() == 0 {
			return nil, nil
		}
		return []*bash5.Read{read}, nil
	case "ccs":
		read, err := z.CCSRead()
		if err != nil || read == nil {
			return nil, err
		}
		return []*bash5.Read{read}, nil
	default:
		return nil, fmt.Errorf("unknown read kind %q", kind)
	}
}

func walkGroup(w io.Writer, s store.Store, path, indent string, depth int) {
	if depth > 20 {
		fmt.Fprintf(w, "%s[MAX DEPTH REACHED]\n", indent)
		return
	}

	members, err := s.Members(path)
	if err != nil {
		fmt.Fprintf(w, "%sERROR getting members of %s: %v\n", indent, path, err)
		return
	}
	fmt.Fprintf(w, "%sGroup %q: %d members\n", indent, path, len(members))

	for _, name := range members {
		child := store.Join(path, name)
		if shape, err := s.Shape(child); err == nil {
			fmt.Fprintf(w, "%s  Dataset %q: shape %v\n", indent, name, shape)
			continue
		}
		walkGroup(w, s, child, indent+"  ", depth+1)
	}
}
