package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smartinventory/smartinventory-backend/internal/inventory/store"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/guesser"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/importer"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/ocr"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/preprocess"
	"github.com/smartinventory/smartinventory-backend/internal/receipt/service"
)

var receiptImage bool

var receiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "Receipt recognition utilities",
}

var receiptParseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse receipt text (or an image with --image) and print the candidates",
	Long: `Parse reads OCR text from a file, or stdin when no file is given, and prints
the recognized items with their guessed category and location as JSON.

With --image the file is a receipt photo and goes through the configured OCR
engine first, including the fallback and placeholder steps.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		rules, err := guesser.DefaultRules()
		if err != nil {
			return err
		}

		// Seeded categories and locations are enough for guessing.
		st := store.New(nil)
		recognizer := ocr.NewRecognizer(
			preprocess.New(cfg.OCR.MaxDimension, ""),
			ocr.EngineFromConfig(cfg.OCR, log),
			ocr.OptionsFromConfig(cfg.OCR),
			log,
		)
		svc := service.New(recognizer, importer.New(st, nil, nil, log), st, rules, nil, log)

		var analysis *service.Analysis
		if receiptImage {
			analysis = svc.Analyze(cmd.Context(), data)
		} else {
			analysis = svc.AnalyzeText(cmd.Context(), string(data))
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	},
}

func init() {
	receiptParseCmd.Flags().BoolVar(&receiptImage, "image", false, "treat the input as a receipt image")
	receiptCmd.AddCommand(receiptParseCmd)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}
