package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pokechat/internal/config"
	"pokechat/internal/identify"
	"pokechat/internal/logging"
)

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "identify <file-or-url>",
		Short: "Identify a Pokémon image without running the server",
		Long: `Identify a Pokémon image against the reference table without running
the server.

The reference table is built the same way serve builds it: from reference.dir
when configured, otherwise warmed from PokeAPI sprites. Useful for checking
why the /identify endpoint does or does not match a given image.

Examples:
  pokechatd identify sprite.png
  pokechatd identify https://example.test/pikachu.png --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			// Diagnostics go to stderr so --json output stays parseable.
			logger, err := logging.New(logging.Options{
				Level:            cfg.Logging.Level,
				Format:           cfg.Logging.Format,
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			client, err := newPokeAPIClient(cfg, nil)
			if err != nil {
				return fmt.Errorf("create pokeapi client: %w", err)
			}

			set, err := buildReferenceSet(cmd.Context(), cfg, client, logger)
			if err != nil {
				return fmt.Errorf("build reference table: %w", err)
			}
			if set.Len() == 0 {
				logger.Warn("reference table is empty, nothing can match")
			}

			svc, err := identify.NewService(cfg, set, client, logger)
			if err != nil {
				return fmt.Errorf("create identify service: %w", err)
			}

			target := strings.TrimSpace(args[0])
			var match identify.Match
			if isRemoteTarget(target) {
				match, err = svc.IdentifyURL(cmd.Context(), target)
			} else {
				match, err = identifyLocalFile(cmd, svc, target)
			}
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, match)
			}

			out := cmd.OutOrStdout()
			entity := "(no match)"
			if match.Matched {
				entity = match.Entity
			}
			fmt.Fprintf(out, "Reference entries: %d (%s, %dx%d)\n", set.Len(), set.Method(), set.Size(), set.Size())
			fmt.Fprintf(out, "Entity:     %s\n", entity)
			fmt.Fprintf(out, "Similarity: %s\n", strconv.FormatFloat(match.Similarity, 'f', 4, 64))
			fmt.Fprintf(out, "Threshold:  %s\n", strconv.FormatFloat(cfg.Hash.SimilarityThreshold, 'f', 2, 64))
			fmt.Fprintf(out, "Verdict:    %s\n", match.Verdict)
			fmt.Fprintf(out, "Matched:    %s\n", yesNo(match.Matched))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a summary")
	return cmd
}

func isRemoteTarget(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func identifyLocalFile(cmd *cobra.Command, svc *identify.Service, path string) (identify.Match, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return identify.Match{}, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return identify.Match{}, fmt.Errorf("read image: %w", err)
	}
	return svc.Identify(cmd.Context(), data)
}
