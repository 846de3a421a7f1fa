package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/queryflow/internal/resolver"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Resolve queries interactively in the terminal",
	Long:  `Starts a terminal conversation with the resolver. Type a traffic query in Chinese, answer the clarification questions, and confirm the synthesized question. Type "exit" to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		provider := buildProvider(cfg)
		engine := buildEngine(cfg, provider)
		ctx := context.Background()

		// Conversation state lives only for this process.
		sessionID := uuid.New().String()
		status := resolver.StatusNewSession
		var history []string
		var primary, secondary string
		var intermediate resolver.IntermediateResult

		fmt.Println("queryflow chat: 输入流量查询问题，例如：查询浙江各地市idc省内流出流入的月均流量")

		for {
			prompt := promptui.Prompt{Label: "你"}
			input, err := prompt.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return nil
				}
				return fmt.Errorf("reading input: %w", err)
			}
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" || input == "退出" {
				return nil
			}

			resp := engine.Resolve(ctx, &resolver.TurnRequest{
				SessionID:      sessionID,
				StatusCode:     status,
				UserInput:      input,
				HistoryInput:   history,
				PrimaryScene:   primary,
				SecondaryScene: secondary,
				Intermediate:   intermediate,
			})

			fmt.Printf("助手: %s\n", resp.AnalysisResult)
			for i, rw := range resp.Rewrites {
				fmt.Printf("      换种说法%d: %s\n", i+1, rw)
			}
			if verbose {
				fmt.Printf("      [状态 %d | %s / %s / %s]\n",
					resp.StatusCode, resp.PrimaryScene, resp.SecondaryScene, resp.Intermediate.ThirdScene)
			}

			history = append(history, input)
			if resp.AnalysisResult != "" {
				history = append(history, resp.AnalysisResult)
			}
			status = resp.StatusCode
			primary = resp.PrimaryScene
			secondary = resp.SecondaryScene
			intermediate = resp.Intermediate
			intermediate.AnalysisResult = resp.AnalysisResult

			// A hand-off ends this task; the next input starts a new one.
			if status == resolver.StatusDownstream || status == resolver.StatusDownstreamDone {
				fmt.Println("助手: 本次查询已完成，可以继续提问新的问题。")
				status = resolver.StatusNewTask
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
