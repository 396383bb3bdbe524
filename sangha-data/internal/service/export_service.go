package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"sangha/sangha-common/stats"
)

// ExportService is the spreadsheet collaborator of the search view.
type ExportService interface {
	// Export renders the members matching term, or the whole collection when
	// nothing matches, as an xlsx workbook.
	Export(ctx context.Context, term string) (*ExportFile, error)

	// Import reads the first worksheet of r. With commit set, every decodable
	// row is saved as a member; rows the store rejects are reported in Errors
	// and the rest are still saved. A cancelled ctx stops the commit and the
	// partial result is returned with the error.
	Import(ctx context.Context, r io.Reader, commit bool) (*ImportResult, error)
}

// ExportFile is a rendered workbook.
type ExportFile struct {
	Filename string
	Rows     int
	Data     []byte
}

// ImportResult reports what an upload contained and what was stored.
type ImportResult struct {
	Sheet     string     `json:"sheet"`
	Rows      int        `json:"rows"`
	Committed bool       `json:"committed"`
	Saved     int        `json:"saved"`
	Errors    []RowError `json:"errors"`
}

type exportService struct {
	members MemberService
	now     func() time.Time
	logger  *zap.Logger
}

func NewExportService(members MemberService, logger *zap.Logger) ExportService {
	return &exportService{members: members, now: time.Now, logger: logger}
}

// ExportFilename is the download name for a workbook produced at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("Sangha_Report_%s.xlsx", t.Format("2006-01-02"))
}

func (s *exportService) Export(ctx context.Context, term string) (*ExportFile, error) {
	snap, err := s.members.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	rows := stats.Filter(snap.Members, term)
	if len(rows) == 0 {
		rows = snap.Members
	}

	data, err := EncodeWorkbook(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Exported members",
		zap.String("term", term),
		zap.Int("rows", len(rows)),
		zap.Uint64("revision", snap.Revision),
	)
	return &ExportFile{Filename: ExportFilename(s.now()), Rows: len(rows), Data: data}, nil
}

func (s *exportService) Import(ctx context.Context, r io.Reader, commit bool) (*ImportResult, error) {
	sheet, err := ReadSheet(r)
	if err != nil {
		return nil, err
	}

	entries, rowErrs := sheet.Entries()
	result := &ImportResult{
		Sheet:     sheet.Name,
		Rows:      len(sheet.Records),
		Committed: commit,
		Errors:    rowErrs,
	}
	if result.Errors == nil {
		result.Errors = []RowError{}
	}

	if commit {
		for _, e := range entries {
			if _, err := s.members.Save(ctx, e.Member); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					s.logger.Warn("Import interrupted",
						zap.String("sheet", sheet.Name),
						zap.Int("saved", result.Saved),
						zap.Error(ctxErr),
					)
					return result, fmt.Errorf("import interrupted at row %d: %w", e.Row, ctxErr)
				}
				s.logger.Warn("Failed to save imported row",
					zap.Int("row", e.Row),
					zap.String("full_name", e.Member.FullName),
					zap.Error(err),
				)
				result.Errors = append(result.Errors, RowError{Row: e.Row, Message: err.Error()})
				continue
			}
			result.Saved++
		}
	}

	s.logger.Info("Imported workbook",
		zap.String("sheet", sheet.Name),
		zap.Int("rows", result.Rows),
		zap.Int("saved", result.Saved),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}
