package utils

import (
	"net/http"
	"strconv"

	"github.com/walklabs/chat-service/internal/domain"
)

// HeaderUserID carries the authenticated user identity. The auth gateway in
// front of this service validates the token and rewrites this header; the
// core trusts it as-is.
const HeaderUserID = "X-User-ID"

func GetUserIDFromRequest(r *http.Request) string {
	if id := r.Header.Get(HeaderUserID); id != "" {
		return id
	}

	// Browser websocket clients cannot set custom headers; the gateway
	// rewrites the query parameter for those.
	return r.URL.Query().Get("user_id")
}

func GetPageFilter(r *http.Request) domain.PageFilter {
	offset, _ := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64)
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	return domain.NewPageFilter(offset, limit)
}
