package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sangha/sangha-common/domain"
	"sangha/sangha-common/stats"
)

func member(code, name string) domain.Member {
	return domain.Member{ID: code + "-" + name, IDCode: code, FullName: name, Title: domain.TitleMonk}
}

func TestFilter_MatchesNameCaseInsensitively(t *testing.T) {
	members := []domain.Member{member("A1", "Somchai"), member("B2", "Bounmy")}

	got := stats.Filter(members, "som")

	require.Len(t, got, 1)
	assert.Equal(t, "A1", got[0].IDCode)
	assert.Equal(t, "Somchai", got[0].FullName)
}

func TestFilter_MatchesCode(t *testing.T) {
	members := []domain.Member{member("LP-001", "Kham"), member("VT-002", "Noy")}

	got := stats.Filter(members, "vt-")

	require.Len(t, got, 1)
	assert.Equal(t, "Noy", got[0].FullName)
}

func TestFilter_EmptyTermIsIdentity(t *testing.T) {
	members := []domain.Member{member("A1", "Somchai"), member("B2", "Bounmy"), member("C3", "Kham")}

	got := stats.Filter(members, "")

	assert.Equal(t, members, got)
}

func TestFilter_EmptyCollection(t *testing.T) {
	got := stats.Filter(nil, "som")
	require.NotNil(t, got)
	assert.Empty(t, got)

	got = stats.Filter([]domain.Member{}, "")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_PreservesOrderAndIsSubset(t *testing.T) {
	members := []domain.Member{
		member("X9", "Saeng"),
		member("A1", "Bounmy"),
		member("S2", "Kham"),
		member("B4", "Souk"),
	}

	got := stats.Filter(members, "s")

	require.Len(t, got, 3)
	assert.Equal(t, "X9", got[0].IDCode)
	assert.Equal(t, "S2", got[1].IDCode)
	assert.Equal(t, "B4", got[2].IDCode)
	for _, m := range got {
		assert.Contains(t, members, m)
	}
}

func TestFilter_Idempotent(t *testing.T) {
	members := []domain.Member{member("A1", "Somchai"), member("B2", "Bounmy"), member("S3", "Somsak")}

	for _, term := range []string{"", "som", "SOM", "b", "zzz"} {
		once := stats.Filter(members, term)
		twice := stats.Filter(once, term)
		assert.Equal(t, once, twice, "term %q", term)
	}
}

func TestFilter_DoesNotAliasInput(t *testing.T) {
	members := []domain.Member{member("A1", "Somchai")}

	got := stats.Filter(members, "")
	got[0].FullName = "changed"

	assert.Equal(t, "Somchai", members[0].FullName)
}

func TestFilter_LaoScript(t *testing.T) {
	members := []domain.Member{member("01", "ພຣະ ສົມພອນ"), member("02", "ສ.ນ ບຸນມີ")}

	got := stats.Filter(members, "ບຸນ")

	require.Len(t, got, 1)
	assert.Equal(t, "02", got[0].IDCode)
}

func TestNormalizeTerm(t *testing.T) {
	assert.Equal(t, "", stats.NormalizeTerm(""))
	assert.Equal(t, stats.NormalizeTerm("Som"), stats.NormalizeTerm("sOM"))
}
