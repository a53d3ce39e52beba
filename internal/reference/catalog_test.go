package reference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prisonfinance/ledgersync/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	l, err := c.Lookup(2501)
	require.NoError(t, err)
	assert.Equal(t, models.PostingCredit, l.PostingType)
	assert.Equal(t, models.ClassificationLiability, l.Classification)

	sub, ok := c.SubAccountTypeFor(2102)
	assert.True(t, ok)
	assert.Equal(t, models.SubAccountSpends, sub)

	_, ok = c.SubAccountTypeFor(1501)
	assert.False(t, ok)

	ref, ok := c.RemoteSubAccountFor(2101)
	assert.True(t, ok)
	assert.Equal(t, "CASH", ref)

	assert.Equal(t, []int{2101, 2102, 2103}, c.PrisonerAccountCodes())
	assert.Contains(t, c.Codes(), models.MigrationClearingAccountCode)
}

func TestCatalog_LookupUnknown(t *testing.T) {
	_, err := Default().Lookup(1234)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownAccountCode))

	var unknown *models.UnknownAccountCodeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, 1234, unknown.Code)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "empty", yaml: "accountCodes: []"},
		{name: "duplicate code", yaml: `
accountCodes:
  - {code: 1, name: A, classification: Asset, postingType: DR}
  - {code: 1, name: B, classification: Asset, postingType: DR}`},
		{name: "wrong natural side", yaml: `
accountCodes:
  - {code: 1, name: A, classification: Liability, postingType: DR}`},
		{name: "bad posting type", yaml: `
accountCodes:
  - {code: 1, name: A, classification: Asset, postingType: XX}`},
		{name: "shared sub-account", yaml: `
accountCodes:
  - {code: 1, name: A, classification: Liability, postingType: CR, subAccountType: REG}
  - {code: 2, name: B, classification: Liability, postingType: CR, subAccountType: REG}`},
		{name: "shared remote sub-account", yaml: `
accountCodes:
  - {code: 1, name: A, classification: Liability, postingType: CR, subAccountType: REG, remoteSubAccount: CASH}
  - {code: 2, name: B, classification: Liability, postingType: CR, subAccountType: SPND, remoteSubAccount: CASH}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Codes())

	path := filepath.Join(t.TempDir(), "codes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accountCodes:
  - {code: 2101, name: Cash, classification: Liability, postingType: CR, subAccountType: REG, remoteSubAccount: CASH}
`), 0o644))

	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2101}, c.Codes())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
