//----------------------------------------------------------------------------------------
// FMSA: fmsa.go
// Main program. Two subcommands: "index" builds an FM-index snapshot from a
// reference FASTA, "align" maps FASTQ reads against a snapshot and writes SAM.
//----------------------------------------------------------------------------------------

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"fmsa"
)

func main() {
	log.SetPrefix("[fmsa] ")
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case "index":
		err = runIndex(os.Args[2:])
	case "align":
		err = runAlign(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		err = fmt.Errorf("unknown subcommand %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "%s %s - FM-index short-read aligner\n\n", fmsa.ProgName, fmsa.ProgVersion)
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s index <REFERENCE.fa> -o <PREFIX>\n", fmsa.ProgName)
	fmt.Fprintf(os.Stderr, "  %s align -i <INDEX.fm> <READS.fq> [-o <OUT.sam>] [-t <N>] [options]\n", fmsa.ProgName)
}

//----------------------------------------------------------------------------------------
// index subcommand
//----------------------------------------------------------------------------------------
func runIndex(args []string) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	out_prefix := fs.String("o", "ref", "output prefix for the index snapshot")
	block := fs.Uint("block", fmsa.DefaultOccBlock, "occurrence sampling block size (power of two)")
	sa_rate := fs.Uint("sa-rate", fmsa.DefaultSARate, "suffix array sampling rate (1 stores the full array)")
	debug := fs.Bool("debug", false, "log memory statistics")
	fs.Parse(args)
	// Flags may also follow the positional argument, as in the usage line.
	var pos_args []string
	for fs.NArg() > 0 {
		pos_args = append(pos_args, fs.Arg(0))
		fs.Parse(fs.Args()[1:])
	}

	if len(pos_args) != 1 {
		return fmt.Errorf("index: exactly one reference FASTA expected")
	}
	if *block == 0 || *block&(*block-1) != 0 {
		return fmt.Errorf("index: block size %d is not a power of two", *block)
	}
	if *sa_rate == 0 {
		return fmt.Errorf("index: sa sampling rate must be positive")
	}

	ref_file := pos_args[0]
	out_file := *out_prefix + ".fm"
	start_time := time.Now()
	_, err := fmsa.BuildIndexFile(ref_file, out_file, uint32(*block), uint32(*sa_rate),
		strings.Join(os.Args, " "))
	if err != nil {
		return err
	}
	log.Printf("Finish indexing.\t%s", time.Since(start_time))
	if *debug {
		fmsa.PrintMemStats("Memstats after indexing")
	}
	return nil
}

//----------------------------------------------------------------------------------------
// align subcommand
//----------------------------------------------------------------------------------------
func runAlign(args []string) error {
	opt := fmsa.DefaultAlignOpt()

	fs := flag.NewFlagSet("align", flag.ExitOnError)
	index_file := fs.String("i", "", "FM-index snapshot (.fm)")
	out_file := fs.String("o", "", "output SAM file (stdout if omitted)")
	fs.IntVar(&opt.Threads, "t", opt.Threads, "number of alignment workers")
	fs.IntVar(&opt.Match, "match", opt.Match, "match score")
	fs.IntVar(&opt.Mismatch, "mismatch", opt.Mismatch, "mismatch penalty")
	fs.IntVar(&opt.GapOpen, "gap-open", opt.GapOpen, "gap open penalty")
	fs.IntVar(&opt.GapExt, "gap-ext", opt.GapExt, "gap extension penalty")
	fs.IntVar(&opt.BandWidth, "band-width", opt.BandWidth, "extension band width")
	fs.IntVar(&opt.ScoreFloor, "score-threshold", opt.ScoreFloor, "minimum alignment score")
	fs.IntVar(&opt.MinSeedLen, "min-seed-len", opt.MinSeedLen, "minimum seed length")
	fs.IntVar(&opt.MaxOcc, "max-occ", opt.MaxOcc, "maximum seed occurrences")
	fs.IntVar(&opt.MaxSecondary, "max-secondary", opt.MaxSecondary, "maximum secondary alignments per read")
	fs.BoolVar(&opt.Ordered, "ordered", false, "write records in input order")
	fs.BoolVar(&opt.Debug, "debug", false, "log memory statistics")
	cpu_profile := fs.String("cpuprofile", "", "write a CPU profile to this file")
	mem_profile := fs.String("memprofile", "", "write a heap profile to this file")
	fs.Parse(args)
	// Flags may also follow the positional argument, as in the usage line.
	var pos_args []string
	for fs.NArg() > 0 {
		pos_args = append(pos_args, fs.Arg(0))
		fs.Parse(fs.Args()[1:])
	}

	if *index_file == "" {
		return fmt.Errorf("align: -i <INDEX.fm> is required")
	}
	if len(pos_args) != 1 {
		return fmt.Errorf("align: exactly one FASTQ file expected")
	}
	if err := opt.Validate(); err != nil {
		return fmt.Errorf("align: %w", err)
	}

	if *cpu_profile != "" {
		f, err := os.Create(*cpu_profile)
		if err != nil {
			return fmt.Errorf("align: create cpu profile: %w", err)
		}
		defer f.Close()
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	start_time := time.Now()
	idx, err := fmsa.LoadIndex(*index_file)
	if err != nil {
		return err
	}
	log.Printf("Finish loading index.\t%s\t%s", idx, time.Since(start_time))
	if opt.Debug {
		fmsa.PrintMemStats("Memstats after loading index")
	}

	reads_file := pos_args[0]
	rf, err := os.Open(reads_file)
	if err != nil {
		return fmt.Errorf("open reads %s: %w", reads_file, err)
	}
	defer rf.Close()

	var out io.Writer = os.Stdout
	if *out_file != "" {
		of, err := os.Create(*out_file)
		if err != nil {
			return fmt.Errorf("create output %s: %w", *out_file, err)
		}
		defer of.Close()
		bw := bufio.NewWriter(of)
		defer bw.Flush()
		out = bw
	}

	writer, err := fmsa.NewSamWriter(out, idx.Contigs, strings.Join(os.Args, " "))
	if err != nil {
		return err
	}

	// Termination signals stop dispatch; in-flight reads drain and records
	// written so far are flushed by the deferred writers.
	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	aligner := fmsa.NewAligner(idx, opt)
	start_time = time.Now()
	if err := aligner.AlignReads(rf, writer, stop); err != nil {
		return err
	}
	log.Printf("Finish aligning reads.\t%s", time.Since(start_time))
	if opt.Debug {
		fmsa.PrintMemStats("Memstats after aligning reads")
	}

	if *mem_profile != "" {
		f, err := os.Create(*mem_profile)
		if err != nil {
			return fmt.Errorf("align: create heap profile: %w", err)
		}
		defer f.Close()
		pprof.WriteHeapProfile(f)
	}
	return nil
}
