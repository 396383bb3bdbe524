package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sangha/sangha-common/domain"
	"sangha/sangha-data/internal/repository"
)

func TestColumns_FlattenNestedBlocks(t *testing.T) {
	cols := Columns()

	assert.Equal(t, "id", cols[0])
	assert.Contains(t, cols, "fullName")
	assert.Contains(t, cols, "currentAddress.temple")
	assert.Contains(t, cols, "father.currentAddress.province")
	assert.Contains(t, cols, "moveOut.monk")
	assert.Contains(t, cols, "dead.novice")
	assert.Contains(t, cols, "documents")
	assert.Contains(t, cols, "createdAt")
	assert.NotContains(t, cols, "currentAddress")
}

func TestWorkbook_RoundTrip(t *testing.T) {
	in := []domain.Member{
		{
			ID:             "a",
			IDCode:         "LP-1",
			FullName:       "ພຣະ ສົມພອນ",
			Title:          domain.TitleMonk,
			Age:            41,
			CreatedAt:      time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
			CurrentAddress: domain.Address{Temple: "Wat A", Province: "ວຽງຈັນ"},
			Mother:         domain.FamilyMember{FullName: "Noy", Age: 60},
			MoveOut:        domain.StatusCounter{Monk: 2, Novice: 1, Date: "2024-02-01"},
			Dead:           domain.DeathCounter{Novice: 1},
			Documents:      []string{"a.pdf", "b.jpg"},
			HasSim:         domain.PresenceNone,
			EthnicGroup:    domain.EthnicMonKhmer,
		},
		{ID: "b", FullName: "Bounmy", Title: domain.TitleNovice},
	}

	data, err := EncodeWorkbook(in)
	require.NoError(t, err)

	sheet, err := ReadSheet(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, SheetName, sheet.Name)
	assert.Equal(t, Columns(), sheet.Header)
	require.Len(t, sheet.Records, 2)

	out, rowErrs := sheet.Members()
	require.Empty(t, rowErrs)
	require.Len(t, out, 2)

	got := out[0]
	assert.Equal(t, "LP-1", got.IDCode)
	assert.Equal(t, "ພຣະ ສົມພອນ", got.FullName)
	assert.Equal(t, domain.Count(41), got.Age)
	assert.True(t, in[0].CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, "Wat A", got.CurrentAddress.Temple)
	assert.Equal(t, "Noy", got.Mother.FullName)
	assert.Equal(t, domain.Count(60), got.Mother.Age)
	assert.Equal(t, in[0].MoveOut, got.MoveOut)
	assert.Equal(t, in[0].Dead, got.Dead)
	assert.Equal(t, []string{"a.pdf", "b.jpg"}, got.Documents)
	assert.Equal(t, domain.PresenceNone, got.HasSim)
	assert.Equal(t, domain.EthnicMonKhmer, got.EthnicGroup)
	assert.Equal(t, domain.TitleNovice, out[1].Title)
}

func TestSheet_MembersReportsBadRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"fullName", "title", "moveOut.monk", "extra"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Kham", "Monk", "abc", "ignored"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"Noy", "abbot", "1"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	sheet, err := ReadSheet(&buf)
	require.NoError(t, err)
	members, rowErrs := sheet.Members()

	require.Len(t, members, 1)
	assert.Equal(t, "Kham", members[0].FullName)
	assert.Equal(t, 0, members[0].MoveOut.Total())
	require.Len(t, rowErrs, 1)
	assert.Equal(t, 3, rowErrs[0].Row)
	assert.Contains(t, rowErrs[0].Message, "abbot")
}

func TestReadSheet_RejectsGarbage(t *testing.T) {
	_, err := ReadSheet(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func newTestExportService(t *testing.T, members ...domain.Member) (ExportService, MemberService) {
	repo := repository.NewMemoryMembersRepo()
	for i := range members {
		_, err := repo.Create(context.Background(), &members[i])
		require.NoError(t, err)
	}
	ms := NewMemberService(repo, nil, zap.NewNop())
	return NewExportService(ms, zap.NewNop()), ms
}

func TestExportService_ExportFiltered(t *testing.T) {
	svc, _ := newTestExportService(t,
		domain.Member{ID: "1", FullName: "Somchai"},
		domain.Member{ID: "2", FullName: "Bounmy"},
	)

	file, err := svc.Export(context.Background(), "som")

	require.NoError(t, err)
	assert.Equal(t, 1, file.Rows)
	assert.Regexp(t, `^Sangha_Report_\d{4}-\d{2}-\d{2}\.xlsx$`, file.Filename)

	sheet, err := ReadSheet(bytes.NewReader(file.Data))
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, "Somchai", sheet.Records[0]["fullName"])
}

func TestExportService_ExportNoMatchFallsBackToAll(t *testing.T) {
	svc, _ := newTestExportService(t,
		domain.Member{ID: "1", FullName: "Somchai"},
		domain.Member{ID: "2", FullName: "Bounmy"},
	)

	file, err := svc.Export(context.Background(), "zzz")

	require.NoError(t, err)
	assert.Equal(t, 2, file.Rows)
}

func TestExportService_ExportEmptyCollection(t *testing.T) {
	svc, _ := newTestExportService(t)

	file, err := svc.Export(context.Background(), "")

	require.NoError(t, err)
	assert.Zero(t, file.Rows)
	sheet, err := ReadSheet(bytes.NewReader(file.Data))
	require.NoError(t, err)
	assert.Empty(t, sheet.Records)
	assert.Equal(t, Columns(), sheet.Header)
}

func TestExportService_ImportPreviewAndCommit(t *testing.T) {
	data, err := EncodeWorkbook([]domain.Member{
		{ID: "x1", FullName: "Kham", Title: domain.TitleMonk},
		{FullName: "Noy", Title: domain.TitleNovice},
	})
	require.NoError(t, err)

	svc, members := newTestExportService(t)
	ctx := context.Background()

	preview, err := svc.Import(ctx, bytes.NewReader(data), false)
	require.NoError(t, err)
	assert.Equal(t, 2, preview.Rows)
	assert.Zero(t, preview.Saved)
	assert.False(t, preview.Committed)
	list, _ := members.List(ctx, "")
	assert.Empty(t, list)

	result, err := svc.Import(ctx, bytes.NewReader(data), true)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Empty(t, result.Errors)

	list, _ = members.List(ctx, "")
	require.Len(t, list, 2)
	assert.Equal(t, "x1", list[0].ID)
	assert.NotEmpty(t, list[1].ID)

	// Re-importing replaces by id instead of duplicating.
	_, err = svc.Import(ctx, bytes.NewReader(data), true)
	require.NoError(t, err)
	list, _ = members.List(ctx, "kham")
	assert.Len(t, list, 1)
}

func TestExportService_ImportKeepsGoingPastRejectedRows(t *testing.T) {
	data, err := EncodeWorkbook([]domain.Member{
		{ID: "x1", FullName: "Kham", Title: domain.TitleMonk},
		{ID: "import", FullName: "Noy", Title: domain.TitleNovice},
		{ID: "x3", FullName: "Bounmy", Title: domain.TitleMonk},
	})
	require.NoError(t, err)
	svc, members := newTestExportService(t)
	ctx := context.Background()

	result, err := svc.Import(ctx, bytes.NewReader(data), true)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Saved)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "reserved")

	list, _ := members.List(ctx, "")
	require.Len(t, list, 2)
	assert.Equal(t, "x1", list[0].ID)
	assert.Equal(t, "x3", list[1].ID)
}

// cancellingMembers cancels the request after the first stored member.
type cancellingMembers struct {
	MemberService
	cancel context.CancelFunc
	saves  int
}

func (c *cancellingMembers) Save(ctx context.Context, m domain.Member) (*domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	saved, err := c.MemberService.Save(ctx, m)
	c.saves++
	if c.saves == 1 {
		c.cancel()
	}
	return saved, err
}

func TestExportService_ImportCancelledReturnsPartialResult(t *testing.T) {
	data, err := EncodeWorkbook([]domain.Member{
		{ID: "x1", FullName: "Kham"},
		{ID: "x2", FullName: "Noy"},
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	members := &cancellingMembers{
		MemberService: NewMemberService(repository.NewMemoryMembersRepo(), nil, zap.NewNop()),
		cancel:        cancel,
	}
	svc := NewExportService(members, zap.NewNop())

	result, err := svc.Import(ctx, bytes.NewReader(data), true)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Saved)
	assert.Empty(t, result.Errors)
}
