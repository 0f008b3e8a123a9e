package service

import (
	"io"
	"net/http"
)

// readBodySnippet reads at most n bytes of a response body for error
// diagnostics.
func readBodySnippet(resp *http.Response, n int64) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, n))
	return string(body)
}
