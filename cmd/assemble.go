package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cbrueffer/gridss/config"
	"github.com/cbrueffer/gridss/internal/assembler"
	"github.com/cbrueffer/gridss/internal/ingest"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// assembleCmd groups the streaming-assembly verbs, mirroring the
// teacher's buildCmd/fragmentsCmd/featuresCmd parent-child layout.
var assembleCmd = &cobra.Command{
	Use:                        "assemble",
	Short:                      "Run the positional de Bruijn graph contig assembler",
	SuggestionsMinimumDistance: 2,
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Assemble contigs from a newline-delimited JSON stream of path nodes",
	Run:   streamAssembly,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Assemble a stream and report tracking counters instead of records",
	Run:   statsAssembly,
}

func init() {
	streamCmd.Flags().StringP("in", "i", "", "input file with newline-delimited JSON path node records (stdin if unset)")
	streamCmd.Flags().StringP("out", "o", "", "output file for newline-delimited JSON AssembledContig records (stdout if unset)")
	streamCmd.Flags().BoolP("progress", "p", false, "show a progress indicator on stderr")
	viper.BindPFlag("in", streamCmd.Flags().Lookup("in"))
	viper.BindPFlag("out", streamCmd.Flags().Lookup("out"))
	viper.BindPFlag("progress", streamCmd.Flags().Lookup("progress"))

	statsCmd.Flags().StringP("in", "i", "", "input file with newline-delimited JSON path node records (stdin if unset)")
	viper.BindPFlag("in", statsCmd.Flags().Lookup("in"))

	assembleCmd.AddCommand(streamCmd)
	assembleCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(assembleCmd)
}

func openInOut(cmd *cobra.Command) (io.Reader, io.WriteCloser, error) {
	inPath, _ := cmd.Flags().GetString("in")
	var in io.Reader = os.Stdin
	if inPath != "" {
		f, err := os.Open(inPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening input: %w", err)
		}
		in = f
	}

	var out io.WriteCloser = nopWriteCloser{os.Stdout}
	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening output: %w", err)
		}
		out = f
	}
	return in, out, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newAssembler(cmd *cobra.Command) (*assembler.Assembler, io.Writer, io.Closer, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	in, out, err := openInOut(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	inCloser, _ := in.(io.Closer)

	arena := pathnode.NewArena()
	src := ingest.NewJSONSource(in, arena, cfg.K)
	source := assembler.FuncNodeSource(func() (assembler.InputItem, bool) {
		item, err, ok := src.NextErr()
		if err != nil {
			log.Printf("ingest: %v", err)
			return assembler.InputItem{}, false
		}
		if !ok {
			return assembler.InputItem{}, false
		}
		return assembler.InputItem{Node: item.Node, Evidence: item.Evidence}, true
	})

	as := assembler.New(cfg, arena, source)
	return as, out, multiCloser{inCloser, out}, nil
}

type multiCloser struct {
	in  io.Closer
	out io.WriteCloser
}

func (m multiCloser) Close() error {
	if m.in != nil {
		m.in.Close()
	}
	return m.out.Close()
}

func streamAssembly(cmd *cobra.Command, args []string) {
	as, out, closer, err := newAssembler(cmd)
	if err != nil {
		log.Fatalf("assemble stream: %v", err)
	}
	defer closer.Close()
	defer as.Close()

	enc := json.NewEncoder(out)

	showProgress, _ := cmd.Flags().GetBool("progress")
	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.New64(0)
		bar.Start()
		defer bar.Finish()
	}

	for {
		rec, ok := as.Next()
		if !ok {
			break
		}
		if err := enc.Encode(rec); err != nil {
			log.Printf("assemble stream: encoding record: %v", err)
		}
		if bar != nil {
			bar.Increment()
		}
	}
}

func statsAssembly(cmd *cobra.Command, args []string) {
	as, _, closer, err := newAssembler(cmd)
	if err != nil {
		log.Fatalf("assemble stats: %v", err)
	}
	defer closer.Close()
	defer as.Close()

	for {
		_, ok := as.Next()
		if !ok {
			break
		}
	}

	fmt.Printf("active_nodes=%d max_bucket_size=%d consumed_input=%d frontier_position=%d contigs_called=%d\n",
		as.ActiveNodeCount(), as.MaxBucketSize(), as.ConsumedInputCount(), as.FrontierPosition(), as.ContigsCalledCount())
}
