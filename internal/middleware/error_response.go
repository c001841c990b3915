package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/otegecmis/books-api/internal/model"
)

// WriteErrorResponse はAPIエラーをJSONレスポンスとして書き込む。
// ハンドラ層と同一のフラットな4フィールド形式を使用する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		slog.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}

// WriteInternalServerError は500エラーレスポンスを書き込む。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
