// Command da is the CLI entrypoint around the disassembly engine. It wires
// flags to engine.Options and streams a single annotated hex file through
// one Engine.Run call; it does not implement editor integration,
// module-listing pre-parsing, or temp-file allocation — those collaborators
// are explicitly out of scope (spec.md 1) and are expected to hand the core
// an already-extracted annotated hex stream.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PeterVels/da/internal/engine"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("da: ")

	var (
		orgFlag    string
		sectFlag   string
		statFlag   bool
		testFlag   bool
		symtabFlag string
	)

	rootCmd := &cobra.Command{
		Use:   "da [input-file]",
		Short: "Iterative disassembler for z/Architecture annotated hex streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if testFlag {
				fmt.Fprintln(os.Stderr, "--test: instruction-coverage harness generation is out of scope for this core; no-op")
				return nil
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			start, err := parseHexFlag(orgFlag)
			if err != nil {
				return fmt.Errorf("--org: %w", err)
			}

			opts := engine.Options{
				StartLocation: start,
				SectionName:   sectFlag,
				Stats:         statFlag,
			}

			e := engine.New(opts)
			if symtabFlag != "" {
				pairs, err := parseSymtab(symtabFlag)
				if err != nil {
					return fmt.Errorf("--symtab: %w", err)
				}
				e.PreloadSymbols(pairs)
			}

			return e.Run(string(raw), os.Stdout)
		},
	}

	rootCmd.Flags().StringVar(&orgFlag, "org", "0", "starting location counter, hex")
	rootCmd.Flags().StringVar(&sectFlag, "section", "", "CSECT name labeling the starting location (default @)")
	rootCmd.Flags().BoolVar(&statFlag, "stat", false, "emit format/mnemonic frequency tables")
	rootCmd.Flags().BoolVar(&testFlag, "test", false, "generate instruction-coverage source (out of scope; no-op)")
	rootCmd.Flags().StringVar(&symtabFlag, "symtab", "", "comma-separated name=hexoffset pairs preloaded as defined labels")

	if err := rootCmd.Execute(); err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func parseHexFlag(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// parseSymtab reads the --symtab flag's "name=hex,name=hex,..." form into
// the preloaded-symbols map the core's §1 "symbol-table extractor" channel
// expects.
func parseSymtab(s string) (map[string]uint32, error) {
	out := make(map[string]uint32)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("malformed pair %q, want name=hex", pair)
		}
		loc, err := parseHexFlag(kv[1])
		if err != nil {
			return nil, fmt.Errorf("pair %q: %w", pair, err)
		}
		out[kv[0]] = loc
	}
	return out, nil
}
