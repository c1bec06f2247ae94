package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/tui/messages"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Open a terminal UI for asking questions about your documents and
browsing the extracted texts.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Bool("menu", false, "start on the menu instead of the chat")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	answers, err := answerService()
	if err != nil {
		return err
	}

	docs, err := documentService()
	if err != nil {
		return err
	}

	ports := tui.NewPorts(answers, docs)
	app, err := tui.NewApp(ports)
	if err != nil {
		return err
	}

	menu, _ := cmd.Flags().GetBool("menu")
	if !menu {
		app = app.WithStartView(messages.ViewChat)
	}

	return app.WithContext(cmd.Context()).Run()
}
