package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"jobly/cv-analyzer/internal/scoring"
	"jobly/cv-analyzer/internal/services"
)

type scoreOutput struct {
	File     string              `json:"file"`
	Hash     string              `json:"cv_hash"`
	Pages    int                 `json:"pages"`
	Tier     scoring.Tier        `json:"tier"`
	Analysis scoring.ScoreReport `json:"analysis"`
}

var scoreCmd = &cobra.Command{
	Use:   "score <file.pdf>",
	Short: "Score a single PDF offline, without touching the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showText, _ := cmd.Flags().GetBool("text")

		engine, err := newEngine()
		if err != nil {
			return fmt.Errorf("failed to build scoring engine: %w", err)
		}
		return runScore(cmd.OutOrStdout(), engine, services.NewPDFParserService(), args[0], showText)
	},
}

func init() {
	scoreCmd.Flags().Bool("text", false, "print the extracted text instead of the report")
}

func runScore(out io.Writer, engine *scoring.Engine, parser services.PDFParserService, path string, showText bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	content, err := parser.ExtractTextWithMetaData(path)
	if err != nil {
		return fmt.Errorf("failed to extract text: %w", err)
	}

	if showText {
		_, err := fmt.Fprintln(out, services.CleanText(content.Text))
		return err
	}

	report, err := engine.Analyze(content.Text)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(scoreOutput{
		File:     path,
		Hash:     services.ContentHash(data),
		Pages:    content.PageCount,
		Tier:     scoring.TierFor(report.TotalScore),
		Analysis: *report,
	})
}
