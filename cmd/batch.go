package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/queryflow/internal/progress"
	"github.com/ziadkadry99/queryflow/internal/resolver"
)

var batchOutput string

// batchResult is one line of the JSON-lines output.
type batchResult struct {
	Query          string `json:"query"`
	StatusCode     int    `json:"status_code"`
	PrimaryScene   string `json:"primary_scene,omitempty"`
	SecondaryScene string `json:"secondary_scene,omitempty"`
	ThirdScene     string `json:"third_scene,omitempty"`
	Question       string `json:"question,omitempty"`
	AnalysisResult string `json:"analysis_result,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Resolve a corpus of queries non-interactively",
	Long: `Reads queries from a file (one per line, # comments skipped), resolves
each as a fresh single-turn conversation, and writes JSON-lines results.
Useful for regression-checking a query corpus after rule changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		queries, err := readQueries(args[0])
		if err != nil {
			return err
		}
		if len(queries) == 0 {
			return fmt.Errorf("no queries found in %s", args[0])
		}

		out := os.Stdout
		if batchOutput != "" {
			f, err := os.Create(batchOutput)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			out = f
		}

		provider := buildProvider(cfg)
		engine := buildEngine(cfg, provider)
		ctx := context.Background()
		enc := json.NewEncoder(out)

		reporter := progress.NewReporter()
		reporter.Start(len(queries))

		counts := make(map[int]int)
		for i, q := range queries {
			resp := engine.Resolve(ctx, &resolver.TurnRequest{
				SessionID:  uuid.New().String(),
				StatusCode: resolver.StatusNewSession,
				UserInput:  q,
			})

			if err := enc.Encode(batchResult{
				Query:          q,
				StatusCode:     resp.StatusCode,
				PrimaryScene:   resp.PrimaryScene,
				SecondaryScene: resp.SecondaryScene,
				ThirdScene:     resp.Intermediate.ThirdScene,
				Question:       resp.Question,
				AnalysisResult: resp.AnalysisResult,
			}); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
			counts[resp.StatusCode]++
			reporter.Update(i+1, q)
		}
		reporter.Finish()

		fmt.Fprintf(os.Stderr, "Resolved %d queries\n", len(queries))
		for _, code := range []int{resolver.StatusConfirmation, resolver.StatusFieldPending, resolver.StatusThirdPending, resolver.StatusCasualChat, resolver.StatusSceneMismatch} {
			if n := counts[code]; n > 0 {
				fmt.Fprintf(os.Stderr, "  status %d: %d\n", code, n)
				delete(counts, code)
			}
		}
		for code, n := range counts {
			fmt.Fprintf(os.Stderr, "  status %d: %d\n", code, n)
		}

		return nil
	},
}

// readQueries loads one query per line, skipping blanks and #-comments.
func readQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening query file: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	return queries, nil
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "write results to file instead of stdout")
	rootCmd.AddCommand(batchCmd)
}
