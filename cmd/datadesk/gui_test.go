package main

import (
	"testing"

	"datadesk/internal/api/dto"
	"datadesk/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLFormRequest(t *testing.T) {
	req, err := sqlFormRequest("mysql", " db.local ", "3307", "ana", "pw", "sales", "  SELECT 1  ")
	require.NoError(t, err)
	assert.Equal(t, dto.SQLRequest{
		DBType:   "mysql",
		Query:    "SELECT 1",
		User:     "ana",
		Password: "pw",
		Host:     "db.local",
		Port:     3307,
		DBName:   "sales",
	}, req)

	req, err = sqlFormRequest("sqlite", "", "", "", "", "/tmp/x.db", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, dto.Port(0), req.Port)

	_, err = sqlFormRequest("mysql", "h", "", "", "", "", " ")
	assert.ErrorIs(t, err, errQueryRequired)

	for _, port := range []string{"abc", "0", "70000"} {
		_, err = sqlFormRequest("mysql", "h", port, "", "", "", "SELECT 1")
		assert.Error(t, err, port)
	}
}

func TestConnectionRequestSkipsQuery(t *testing.T) {
	req, err := connectionRequest("postgresql", "pg", "5432", "u", "", "d")
	require.NoError(t, err)
	assert.Equal(t, "", req.Query)
	assert.Equal(t, dto.Port(5432), req.Port)

	_, err = connectionRequest("postgresql", "pg", "-1", "u", "", "d")
	assert.Error(t, err)
}

func TestSheetOptions(t *testing.T) {
	got := sheetOptions([]sheets.SheetFile{{ID: "1", Name: "Prices"}, {ID: "2", Name: "Prices"}})
	assert.Equal(t, []string{"Prices", "Prices"}, got)
	assert.Empty(t, sheetOptions(nil))
}

func TestPortPlaceholderFollowsDriver(t *testing.T) {
	assert.Equal(t, "default (5432)", portPlaceholder("postgresql"))
	assert.Equal(t, "default (1433)", portPlaceholder("mssql"))
	assert.Equal(t, "not used", portPlaceholder("sqlite"))
}
