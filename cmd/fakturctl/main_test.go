package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fakturscan/internal/auth"
	"fakturscan/internal/config"
	"fakturscan/internal/export"
)

const summaryText = "Kode dan Nomor Seri Faktur Pajak : 020.000-24.00000001\n" +
	"Harga Jual / Penggantian 50.000.000,00\n" +
	"Dasar Pengenaan Pajak 50.000.000,00\n" +
	"Jumlah PPN (Pajak Pertambahan Nilai) 0,00\n"

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestDispatch_ParseJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faktur.txt")
	require.NoError(t, os.WriteFile(path, []byte(summaryText), 0o644))

	var stdout, stderr bytes.Buffer
	err := dispatch(context.Background(), loadConfig(t), zap.NewNop(), "parse", []string{path}, &stdout, &stderr)

	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), `"status": "approved"`)
	assert.Contains(t, stdout.String(), `"source": "text-only"`)
}

func TestDispatch_ParseCSVToFileWithFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "faktur.txt")
	bad := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(good, []byte(summaryText), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte{0x89, 'P', 'N', 'G', 0, 0}, 0o644))
	out := filepath.Join(dir, "out.csv")

	var stdout, stderr bytes.Buffer
	err := dispatch(context.Background(), loadConfig(t), zap.NewNop(), "parse",
		[]string{"-f", "csv", "-o", out, good, bad}, &stdout, &stderr)

	assert.ErrorIs(t, err, errFailures)
	assert.Contains(t, stderr.String(), "scan.png")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data[len(export.BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "text-only results carry no line items")
}

func TestDispatch_ParseArgumentErrors(t *testing.T) {
	cfg := loadConfig(t)
	var stdout, stderr bytes.Buffer

	err := dispatch(context.Background(), cfg, zap.NewNop(), "parse", nil, &stdout, &stderr)
	assert.ErrorContains(t, err, "at least one file")

	err = dispatch(context.Background(), cfg, zap.NewNop(), "parse", []string{"-f", "xlsx", "a.txt"}, &stdout, &stderr)
	assert.ErrorContains(t, err, "needs -o")

	err = dispatch(context.Background(), cfg, zap.NewNop(), "frobnicate", nil, &stdout, &stderr)
	assert.ErrorContains(t, err, "unknown command")
}

func TestDispatch_Token(t *testing.T) {
	cfg := loadConfig(t)
	var stdout bytes.Buffer

	err := dispatch(context.Background(), cfg, zap.NewNop(), "token", []string{"--sub", "ingest", "--ttl", "10m"}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	claims, err := auth.NewTokenManager(cfg.JWT).Validate(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "ingest", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}
