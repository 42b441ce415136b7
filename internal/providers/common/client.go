package common

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// NewClient builds the resty client used for BSI page fetches: browser-like
// headers, 30s timeout, and exponential-backoff retries on connection errors
// and throttling/server-error status codes.
func NewClient() *resty.Client {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(5)
	client.SetRetryWaitTime(2 * time.Second)
	client.SetRetryMaxWaitTime(32 * time.Second)
	client.AddRetryCondition(func(resp *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		switch resp.StatusCode() {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	})

	client.SetHeaders(map[string]string{
		"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7",
		"DNT":                       "1",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Cache-Control":             "max-age=0",
	})

	return client
}
