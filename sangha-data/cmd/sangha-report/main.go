// Command sangha-report summarizes an exported members workbook offline.
//
//	sangha-report -file Sangha_Report_2024-05-01.xlsx -search som
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	commoncfg "sangha/sangha-common/config"
	"sangha/sangha-common/domain"
	"sangha/sangha-common/logger"
	"sangha/sangha-common/stats"
	"sangha/sangha-data/internal/service"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to an .xlsx workbook (first sheet is read)")
		search      = flag.String("search", "", "Case-insensitive id code or name filter")
		withMembers = flag.Bool("members", false, "Include the matching members in the output")
		logLevel    = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	log, err := logger.New(commoncfg.LogConfig{Level: *logLevel, Format: "console"}, "sangha-report")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -file <workbook.xlsx> [-search term] [-members]\n", os.Args[0])
		os.Exit(2)
	}

	if err := run(os.Stdout, log, *file, *search, *withMembers); err != nil {
		log.Error("Report failed", zap.String("file", *file), zap.Error(err))
		os.Exit(1)
	}
}

func run(out io.Writer, log *zap.Logger, path, term string, withMembers bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sheet, err := service.ReadSheet(f)
	if err != nil {
		return err
	}
	members, rowErrs := sheet.Members()
	for _, re := range rowErrs {
		log.Warn("Skipped row", zap.Int("row", re.Row), zap.String("reason", re.Message))
	}
	log.Info("Read workbook",
		zap.String("sheet", sheet.Name),
		zap.Int("rows", len(sheet.Records)),
		zap.Int("members", len(members)),
	)

	report := stats.Compute(domain.Snapshot{Members: members}, term)
	if !withMembers {
		report.Members = nil
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
