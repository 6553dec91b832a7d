package httpclient

import (
	"net/http"
)

func effURL(req *http.Request, resp *http.Response) string {
	if resp != nil && resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	if req != nil && req.URL != nil {
		return req.URL.String()
	}
	return ""
}

func cloneHdr(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	return h.Clone()
}

// byteCount prefers the transport-reported length and falls back to
// the received body when that is absent or zero.
func byteCount(resp *http.Response, body []byte) int64 {
	if resp != nil && resp.ContentLength > 0 {
		return resp.ContentLength
	}
	return int64(len(body))
}

func summaryFromHTTP(sent *http.Request, resp *http.Response, body []byte) *Summary {
	return &Summary{
		Status:      resp.Status,
		StatusCode:  resp.StatusCode,
		Proto:       resp.Proto,
		Bytes:       byteCount(resp, body),
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     cloneHdr(resp.Header),
		URL:         effURL(sent, resp),
	}
}
