package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"linkguard/internal/collectors"
	"linkguard/internal/logger"
	"linkguard/internal/xray"

	"golang.org/x/net/proxy"
)

const maxBody = 16 << 20

type URLCollector struct{}

// Collect fetches params["url"] and extracts links from the body, which may
// be a base64 subscription. params["proxy"] (or the injected "_proxy_url")
// routes the request through an http, https or socks5 proxy.
func (c *URLCollector) Collect(config map[string]interface{}) ([]string, error) {
	targetURL, err := collectors.StringParam(config, "url")
	if err != nil {
		return nil, err
	}

	timeout := 120 * time.Second
	if secs, ok := config["timeout"].(int); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	client := &http.Client{Timeout: timeout}

	proxyStr, _ := config["proxy"].(string)
	if injected, ok := config["_proxy_url"].(string); ok && injected != "" {
		proxyStr = injected
	}
	if proxyStr != "" {
		transport, err := proxyTransport(proxyStr)
		if err != nil {
			return nil, err
		}
		client.Transport = transport
		logger.Log.Debugf("HTTP Collector using proxy: %s", proxyStr)
	}

	logger.Log.Debugf("Fetching URL: %s", targetURL)
	resp, err := client.Get(targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 status code: %d", resp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	return xray.ExtractLinks(xray.DecodeSubscription(string(bodyBytes))), nil
}

func proxyTransport(proxyStr string) (*http.Transport, error) {
	pURL, err := url.Parse(proxyStr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}

	switch pURL.Scheme {
	case "http", "https":
		return &http.Transport{Proxy: http.ProxyURL(pURL)}, nil
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(pURL, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("invalid socks proxy: %w", err)
		}
		transport := &http.Transport{}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", pURL.Scheme)
	}
}

func init() {
	collectors.Register("http", func() collectors.Collector {
		return &URLCollector{}
	})
}
