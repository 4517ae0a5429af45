package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pokechat/internal/config"
	"pokechat/internal/imagehash"
)

type hashResult struct {
	File   string `json:"file"`
	Method string `json:"method"`
	Size   int    `json:"size"`
	Bits   int    `json:"bits"`
	Hash   string `json:"hash"`
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	var methodFlag string
	var sizeFlag int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "hash <image...>",
		Short: "Compute perceptual hashes of local image files",
		Long: `Compute perceptual hashes of local image files.

Uses the configured hash method and grid size unless overridden with flags,
so output is directly comparable with the reference table the service
matches against.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			methodValue := strings.TrimSpace(methodFlag)
			if methodValue == "" {
				methodValue = cfg.Hash.Method
			}
			method, err := imagehash.ParseMethod(methodValue)
			if err != nil {
				return err
			}
			size := sizeFlag
			if size <= 0 {
				size = cfg.Hash.Size
			}

			results := make([]hashResult, 0, len(args))
			for _, arg := range args {
				result, err := hashFile(arg, method, size)
				if err != nil {
					return err
				}
				results = append(results, result)
			}

			if jsonOut {
				return writeJSON(cmd, results)
			}

			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.File, r.Method, strconv.Itoa(r.Bits), r.Hash})
			}
			out := cmd.OutOrStdout()
			if isTerminal(out) {
				fmt.Fprintln(out, renderTable([]string{"File", "Method", "Bits", "Hash"}, rows, 2))
			} else {
				fmt.Fprint(out, renderPlain(rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&methodFlag, "method", "m", "", "Hash method: ahash, phash, dhash, or whash (default: configured)")
	cmd.Flags().IntVarP(&sizeFlag, "size", "s", 0, "Hash grid size (default: configured)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func hashFile(path string, method imagehash.Method, size int) (hashResult, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return hashResult{}, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return hashResult{}, fmt.Errorf("read image: %w", err)
	}
	img, err := imagehash.Decode(data)
	if err != nil {
		return hashResult{}, fmt.Errorf("decode %s: %w", path, err)
	}
	hash, err := imagehash.Compute(img, method, size)
	if err != nil {
		return hashResult{}, fmt.Errorf("hash %s: %w", path, err)
	}
	return hashResult{
		File:   path,
		Method: method.String(),
		Size:   size,
		Bits:   hash.BitLength(),
		Hash:   hash.String(),
	}, nil
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
