package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentctl/agentctl/pkg/llm"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/setup"
)

var (
	chatProvider string
	chatModel    string
)

// providersCmd groups LLM provider subcommands
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Manage LLM providers",
}

// providersListCmd lists the usable providers
var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers with a configured credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		gateway, err := setup.InitializeGateway(appConfig.LLM, appLogger, appMetrics)
		if err != nil {
			return err
		}

		names := gateway.ListProviders()
		if jsonOutput {
			return printJSON(names)
		}
		if len(names) == 0 {
			fmt.Println("No providers configured.")
			return nil
		}
		for _, name := range names {
			marker := " "
			if name == appConfig.LLM.DefaultProvider {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

// chatCmd sends one prompt through the completion gateway
var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Send a prompt to an LLM provider",
	Long: `Send a single prompt through the completion gateway and print the
model's reply. Every provider returns the same response shape, so the
output is identical regardless of which backend served the request.

Examples:
  agentctl chat "summarize the last agent run"
  agentctl chat --provider openrouter --model openai/gpt-4o "hello"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.Join(args, " ")

		gateway, err := setup.InitializeGateway(appConfig.LLM, appLogger, appMetrics)
		if err != nil {
			return err
		}

		provider := chatProvider
		if provider == "" {
			provider = appConfig.LLM.DefaultProvider
		}
		model := chatModel
		if model == "" {
			model = appConfig.LLM.DefaultModel
		}

		resp, err := gateway.CreateChatCompletion(cmd.Context(), provider, llm.ChatRequest{
			Model: model,
			Messages: []llm.Message{
				{Role: llm.RoleUser, Content: prompt},
			},
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(resp)
		}
		fmt.Println(resp.Content)
		for _, tc := range resp.ToolCalls {
			fmt.Printf("[tool call] %s(%s)\n", tc.Function.Name, tc.Function.Arguments)
		}
		if resp.Usage != nil {
			appLogger.Debug("token usage",
				logging.Int("prompt", resp.Usage.PromptTokens),
				logging.Int("completion", resp.Usage.CompletionTokens),
			)
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatProvider, "provider", "p", "", "provider name (default from config)")
	chatCmd.Flags().StringVarP(&chatModel, "model", "m", "", "model identifier (default from config)")

	providersCmd.AddCommand(providersListCmd)
}
