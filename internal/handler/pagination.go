package handler

import (
	"net/http"
	"strconv"
)

// listMeta はページネーション付き一覧レスポンスの共通メタ情報。
type listMeta struct {
	Count       int `json:"count"`
	CurrentPage int `json:"currentPage"`
	PerPage     int `json:"perPage"`
	TotalPages  int `json:"totalPages"`
}

// paginationFromQuery はクエリパラメータからページネーション値を取得する。
// 不正な値・欠落はサービス層の正規化に委ねるため0のまま返す。
func paginationFromQuery(r *http.Request) (currentPage, perPage int) {
	currentPage, _ = strconv.Atoi(r.URL.Query().Get("currentPage"))
	perPage, _ = strconv.Atoi(r.URL.Query().Get("perPage"))
	return currentPage, perPage
}
