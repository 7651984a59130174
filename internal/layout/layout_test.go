package layout_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakturscan/internal/domain"
	"fakturscan/internal/geometry"
	"fakturscan/internal/layout"
)

func tok(text string, x0, y0, x1, y1 float64) domain.Token {
	return domain.Token{Text: text, BBox: geometry.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}, Page: 1}
}

// headerRow is a Faktur Pajak table header with split "Harga" "Jual" words.
func headerRow(y float64) []domain.Token {
	return []domain.Token{
		tok("No.", 20, y, 40, y+12),
		tok("Nama", 50, y, 90, y+12),
		tok("Barang", 95, y, 150, y+12),
		tok("Harga", 300, y, 335, y+12),
		tok("Jual", 340, y, 380, y+12),
		tok("DPP", 420, y, 460, y+12),
		tok("PPN", 520, y, 560, y+12),
	}
}

func itemRow(y float64, no, desc, hj, dpp, ppn string) []domain.Token {
	return []domain.Token{
		tok(no, 20, y, 30, y+12),
		tok(desc, 50, y, 200, y+12),
		tok(hj, 300, y, 380, y+12),
		tok(dpp, 400, y, 468, y+12),
		tok(ppn, 505, y, 565, y+12),
	}
}

func TestClusterRows(t *testing.T) {
	tokens := []domain.Token{
		tok("b", 60, 100, 80, 110),
		tok("c", 10, 130, 20, 140),
		tok("a", 10, 101, 30, 112),
		tok("a2", 10, 99, 30, 110),
	}
	rows := layout.ClusterRows(tokens, 3)
	require.Len(t, rows, 2)

	first := rows[0]
	require.Len(t, first.Tokens, 3)
	assert.Equal(t, "a", first.Tokens[0].Text, "equal X0 keeps input order")
	assert.Equal(t, "a2", first.Tokens[1].Text)
	assert.Equal(t, "b", first.Tokens[2].Text)
	assert.Equal(t, "c", rows[1].Text())
	assert.Less(t, rows[0].YCenter, rows[1].YCenter)

	assert.Nil(t, layout.ClusterRows(nil, 3))
}

func TestDetectHeader_SplitWords(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := append(headerRow(100), itemRow(130, "1", "Laptop", "10.000.000,00", "10.000.000,00", "1.100.000,00")...)

	h, ok := det.DetectHeader(tokens)
	require.True(t, ok)
	assert.Equal(t, domain.SourceHeaderDetected, h.Source)
	assert.Equal(t, 112.0, h.HeaderY)
	assert.Equal(t, 1, h.Page)

	require.Len(t, h.Ranges, 3)
	assert.Equal(t, domain.ColumnHargaJual, h.Ranges[0].Label)
	assert.Equal(t, domain.ColumnDPP, h.Ranges[1].Label)
	assert.Equal(t, domain.ColumnPPN, h.Ranges[2].Label)

	assert.Equal(t, domain.ColumnRange{Label: domain.ColumnHargaJual, XMin: 290, XMax: 390}, h.Ranges[0])
	assert.Equal(t, domain.ColumnRange{Label: domain.ColumnDPP, XMin: 410, XMax: 470}, h.Ranges[1])
	assert.Equal(t, h.Ranges[0], h.Leftmost())

	r, ok := h.Range(domain.ColumnPPN)
	require.True(t, ok)
	assert.Equal(t, 510.0, r.XMin)
}

func TestDetectHeader_WholePhraseTokens(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := []domain.Token{
		tok("Harga Jual/Penggantian/Uang Muka/Termin", 250, 100, 380, 112),
		tok("Dasar Pengenaan Pajak", 400, 100, 470, 112),
		tok("Jumlah PPN", 500, 100, 560, 112),
	}
	h, ok := det.DetectHeader(tokens)
	require.True(t, ok)
	require.Len(t, h.Ranges, 3)
	assert.Equal(t, domain.ColumnDPP, h.Ranges[1].Label)
}

func TestDetectHeader_RangesNeverOverlap(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := []domain.Token{
		tok("Harga Jual", 300, 100, 380, 112),
		tok("DPP", 384, 100, 420, 112),
		tok("PPN", 424, 100, 460, 112),
	}
	h, ok := det.DetectHeader(tokens)
	require.True(t, ok)
	for i := 1; i < len(h.Ranges); i++ {
		assert.LessOrEqual(t, h.Ranges[i-1].XMax, h.Ranges[i].XMin)
	}
	assert.Equal(t, 382.0, h.Ranges[0].XMax)
	assert.Equal(t, 382.0, h.Ranges[1].XMin)
}

func TestDetectHeader_MissingColumn(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())

	t.Run("ppnbm is not ppn", func(t *testing.T) {
		tokens := []domain.Token{
			tok("Harga Jual", 300, 100, 380, 112),
			tok("DPP", 420, 100, 460, 112),
			tok("PPnBM", 520, 100, 560, 112),
		}
		_, ok := det.DetectHeader(tokens)
		assert.False(t, ok)
	})

	t.Run("labels outside vertical band", func(t *testing.T) {
		tokens := []domain.Token{
			tok("Harga Jual", 300, 100, 380, 112),
			tok("DPP", 420, 300, 460, 312),
			tok("PPN", 520, 100, 560, 112),
		}
		_, ok := det.DetectHeader(tokens)
		assert.False(t, ok)
	})

	t.Run("no tokens", func(t *testing.T) {
		_, ok := det.DetectHeader(nil)
		assert.False(t, ok)
	})
}

func TestDetectTableEnd(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := append(headerRow(100), itemRow(130, "1", "Laptop", "10.000.000,00", "10.000.000,00", "1.100.000,00")...)
	tokens = append(tokens,
		tok("Jumlah", 50, 170, 90, 182),
		tok("Harga", 95, 170, 130, 182),
		tok("Jual", 135, 170, 160, 182),
		tok("10.000.000,00", 300, 171, 380, 183),
	)

	y, ok := det.DetectTableEnd(tokens, 112, nil)
	require.True(t, ok)
	assert.Equal(t, 170.0, y)

	_, ok = det.DetectTableEnd(tokens, 200, nil)
	assert.False(t, ok)
}

func TestDetectTableEnd_SkipsCarriedSubtotal(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := []domain.Token{
		tok("Jumlah", 50, 30, 90, 42),
		tok("dari", 95, 30, 120, 42),
		tok("halaman", 125, 30, 170, 42),
		tok("sebelumnya", 175, 30, 240, 42),
		tok("10.000.000,00", 300, 30, 380, 42),
	}
	tokens = append(tokens, itemRow(60, "2", "Keyboard", "1.000.000,00", "1.000.000,00", "110.000,00")...)
	tokens = append(tokens,
		tok("Jumlah", 50, 120, 90, 132),
		tok("Harga", 95, 120, 130, 132),
		tok("Jual", 135, 120, 160, 132),
		tok("11.000.000,00", 300, 120, 380, 132),
	)
	isItem := func(row domain.Row) bool {
		return strings.Contains(row.Text(), "Keyboard")
	}

	y, ok := det.DetectTableEnd(tokens, 0, isItem)
	require.True(t, ok)
	assert.Equal(t, 120.0, y)

	y, ok = det.DetectTableEnd(tokens, 0, nil)
	require.True(t, ok)
	assert.Equal(t, 30.0, y)
}

func TestIsTableEnd(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Jumlah Harga Jual / Penggantian", true},
		{"Dikurangi Potongan Harga", true},
		{"Dasar Pengenaan Pajak", true},
		{"Total PPN", true},
		{"Uang Muka", true},
		{"Laptop jumlah 2", false},
		{"Dppx", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, layout.IsTableEnd(tc.text))
		})
	}
}

func TestDetectHeuristic(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := append(
		itemRow(130, "1", "Laptop", "10.000.000,00", "10.000.000,00", "1.100.000,00"),
		itemRow(150, "2", "Mouse", "500.000,00", "500.000,00", "55.000,00")...,
	)

	h, ok := det.DetectHeuristic(tokens)
	require.True(t, ok)
	assert.Equal(t, domain.SourceHeuristic, h.Source)
	assert.Equal(t, 127.0, h.HeaderY)
	require.Len(t, h.Ranges, 3)
	assert.Equal(t, domain.ColumnHargaJual, h.Ranges[0].Label)
	assert.Equal(t, domain.ColumnPPN, h.Ranges[2].Label)
	assert.Less(t, h.Ranges[0].XMax, h.Ranges[1].XMin+1e-9)
}

func TestDetectHeuristic_TooFewClusters(t *testing.T) {
	det := layout.NewDetector(layout.DefaultOptions())
	tokens := []domain.Token{
		tok("Laptop", 50, 130, 200, 142),
		tok("10.000.000,00", 300, 130, 380, 142),
		tok("Mouse", 50, 150, 200, 162),
		tok("500.000,00", 320, 150, 380, 162),
	}
	_, ok := det.DetectHeuristic(tokens)
	assert.False(t, ok)
}

func TestHeaderKeywords_ReturnsCopy(t *testing.T) {
	kw := layout.HeaderKeywords()
	require.Len(t, kw, 5)
	kw[0].Label = domain.ColumnDescription
	assert.Equal(t, domain.ColumnHargaJual, layout.HeaderKeywords()[0].Label)
}

func TestClassifySummaryLine(t *testing.T) {
	tests := []struct {
		line  string
		field layout.SummaryField
		ok    bool
	}{
		{"Harga Jual / Penggantian / Uang Muka / Termin 50.000.000,00", layout.FieldHargaJual, true},
		{"Dikurangi Potongan Harga 0,00", layout.FieldPotongan, true},
		{"Dikurangi Uang Muka yang telah diterima", layout.FieldUangMuka, true},
		{"Dasar Pengenaan Pajak 50.000.000,00", layout.FieldDPP, true},
		{"Jumlah PPN (Pajak Pertambahan Nilai) 0,00", layout.FieldPPN, true},
		{"Jumlah PPnBM (Pajak Penjualan atas Barang Mewah) 0,00", layout.FieldPPnBM, true},
		{"Nama Pembeli", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			field, _, ok := layout.ClassifySummaryLine(tc.line)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.field, field)
		})
	}
}

func TestTrailingAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Jumlah PPN 11% 1.100.000,00", "1.100.000,00", true},
		{" = Rp 50 000 000,00", "50000000,00", true},
		{"PPnBM (0,00%) = Rp 0,00", "0,00", true},
		{"Pajak Pertambahan Nilai", "", false},
		{"DPP I.100.000,00", "I.100.000,00", true},
		{"Total Rp1.000,00", "1.000,00", true},
		{"Total Nilai Item lOl", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := layout.TrailingAmount(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDetectTypeCode(t *testing.T) {
	code, ok := layout.DetectTypeCode("Kode dan Nomor Seri Faktur Pajak : 020.000-24.00000001")
	require.True(t, ok)
	assert.Equal(t, "020", code)

	code, ok = layout.DetectTypeCode("Nomor Faktur: 010.001-24.12345678")
	require.True(t, ok)
	assert.Equal(t, "010", code)

	_, ok = layout.DetectTypeCode("Faktur tanpa nomor")
	assert.False(t, ok)
}
