package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askModel   string
	askOffline bool
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the library with citations",
	Long: `Answer a question grounded in the included sources. Passages are cited as
[1], [2], ... and listed under "Sources:". Without a usable model the answer
is built offline from the best passages.

Examples:
  cortex ask "what caused the engine failure?"
  cortex ask --model gemini-2.0-flash-exp "summarize the shift log"
  cortex ask --offline "coolant pressure"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askModel, "model", "m", "", "model to use (default from config)")
	askCmd.Flags().BoolVar(&askOffline, "offline", false, "never call a model")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer and citations as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	question := strings.Join(args, " ")

	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.List()
	if err != nil {
		return err
	}

	chat := newChat(cfg, newRetrieve(cfg), newModel(cfg, askModel, askOffline))
	result, err := chat.Chat(cmd.Context(), question, docs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if askJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}
	fmt.Fprintln(out, result.Response)
	return nil
}
