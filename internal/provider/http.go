package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const sinaReferer = "https://finance.sina.com.cn"

// upstream names an HTTP endpoint family for error messages.
type upstream string

// get issues a GET with browser-like headers and returns the body of a 200.
func (u upstream) get(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s error %d: %s", u, resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// decodeGBK converts a GB18030/GBK payload to UTF-8.
func decodeGBK(b []byte) (string, error) {
	out, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode gbk: %w", err)
	}
	return string(out), nil
}
