package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cortex/internal/domain"
	"cortex/internal/usecase"
)

var (
	studioInstructions string
	studioModel        string
	studioOffline      bool
	studioPrompt       bool
	studioOutput       string
)

var studioCmd = &cobra.Command{
	Use:   "studio <type>",
	Short: "Generate a study artifact from the library",
	Long: `Generate a study artifact from the included sources. Structured artifacts
(slide decks, quizzes, flashcards, audio and video overviews, infographics)
are JSON, mind maps are Mermaid and briefings and data tables are Markdown.

Use --prompt to print the prompt instead of calling a model, for example to
paste it into another tool.

Types: ` + artifactTypeList() + `

Examples:
  cortex studio quiz
  cortex studio briefing_doc -i "focus on the timeline" -o briefing.md
  cortex studio mind_map --prompt`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: artifactTypeNames(),
	RunE:      runStudio,
}

func init() {
	rootCmd.AddCommand(studioCmd)
	studioCmd.Flags().StringVarP(&studioInstructions, "instructions", "i", "", "extra instructions for the model")
	studioCmd.Flags().StringVarP(&studioModel, "model", "m", "", "model to use (default from config)")
	studioCmd.Flags().BoolVar(&studioOffline, "offline", false, "never call a model")
	studioCmd.Flags().BoolVar(&studioPrompt, "prompt", false, "print the model prompt and exit")
	studioCmd.Flags().StringVarP(&studioOutput, "output", "o", "", "write the artifact to a file")
}

func runStudio(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	at, err := usecase.ParseArtifactType(args[0])
	if err != nil {
		return err
	}

	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	retrieve := newRetrieve(cfg)

	if studioPrompt {
		studio := newStudio(cfg, retrieve, nil)
		fmt.Fprintf(out, "System:\n%s\n\nUser:\n%s\n", usecase.SystemPrompt(), studio.Prompt(at, studioInstructions, docs))
		return nil
	}

	studio := newStudio(cfg, retrieve, newModel(cfg, studioModel, studioOffline))
	artifact, err := studio.Generate(cmd.Context(), at, studioInstructions, docs)
	if err != nil {
		return err
	}

	if studioOutput != "" {
		if err := os.WriteFile(studioOutput, []byte(artifact.Content+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s to %s\n", at, studioOutput)
	} else {
		fmt.Fprintln(out, artifact.Content)
	}
	if artifact.Offline {
		fmt.Fprintf(cmd.ErrOrStderr(), "(generated offline)\n")
	}
	return nil
}

func artifactTypeNames() []string {
	types := domain.ArtifactTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}

func artifactTypeList() string {
	return strings.Join(artifactTypeNames(), ", ")
}
