// Package model はドメインモデルを定義する。
package model

// Pagination はページネーションパラメータを表す。
type Pagination struct {
	CurrentPage int
	PerPage     int
}

// NormalizePagination は不正なページネーションパラメータを既定値に丸める。
// currentPage < 1 は 1 に、perPage < 1 は 10 に補正する。
func NormalizePagination(currentPage, perPage int) Pagination {
	if currentPage < 1 {
		currentPage = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	return Pagination{CurrentPage: currentPage, PerPage: perPage}
}

// Offset はSQLのOFFSET句に渡す行数を返す。
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}

// TotalPages は総件数から総ページ数を計算する。
func (p Pagination) TotalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}
