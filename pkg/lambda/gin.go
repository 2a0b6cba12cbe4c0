package lambda

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinHandler mounts a HandlerFunc on a gin router so the local server runs
// exactly the same handler chain as the deployed functions.
func GinHandler(h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := FromHTTPRequest(c.Request)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		for _, p := range c.Params {
			req.PathParams[p.Key] = p.Value
		}

		resp, err := h(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		c.Status(resp.StatusCode)
		if len(resp.Body) > 0 {
			_, _ = c.Writer.Write(resp.Body)
		}
	}
}

// FromHTTPRequest converts a net/http request into a generic request
func FromHTTPRequest(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	query := make(map[string]string)
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	return &Request{
		Method:      r.Method,
		Path:        r.URL.EscapedPath(),
		Headers:     headers,
		QueryParams: query,
		Body:        body,
		PathParams:  make(map[string]string),
	}, nil
}
