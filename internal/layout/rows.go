package layout

import (
	"sort"

	"fakturscan/internal/domain"
	"fakturscan/internal/geometry"
)

// ClusterRows groups the tokens of one page into visual rows using
// single-linkage clustering on vertical centers. Rows come back top to
// bottom; within a row tokens are ordered by X0, ties in input order.
func ClusterRows(tokens []domain.Token, threshold float64) []domain.Row {
	if len(tokens) == 0 {
		return nil
	}
	centers := make([]float64, len(tokens))
	for i := range tokens {
		centers[i] = tokens[i].BBox.CenterY()
	}

	groups := geometry.Cluster1D(centers, threshold)
	rows := make([]domain.Row, 0, len(groups))
	for _, g := range groups {
		sort.Ints(g)
		row := domain.Row{
			Page:   tokens[g[0]].Page,
			Tokens: make([]domain.Token, 0, len(g)),
		}
		var sum float64
		for _, i := range g {
			row.Tokens = append(row.Tokens, tokens[i])
			sum += centers[i]
		}
		row.YCenter = sum / float64(len(g))
		sort.SliceStable(row.Tokens, func(a, b int) bool {
			return row.Tokens[a].BBox.X0 < row.Tokens[b].BBox.X0
		})
		rows = append(rows, row)
	}
	return rows
}
