package api

import (
	"crypto/tls"
	"fmt"
	"net/http"
)

// connection returns the client's memoized transport connection, building
// it on first use. The extension runs exactly once, even when the first
// requests race. A panicking extension leaves no connection; the panic is
// kept and returned by every request.
func (c *Client) connection() (*http.Client, error) {
	c.connOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				c.connErr = fmt.Errorf("connection extension failed: %v", r)
			}
		}()
		conn := newConnection(c.cfg)
		if c.cfg.Extend != nil {
			c.cfg.Extend(conn)
		}
		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()
	})
	return c.conn, c.connErr
}

// Built reports whether the connection has been created.
func (c *Client) Built() bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn != nil
}

func newConnection(cfg Config) *http.Client {
	baseTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		baseTransport = &http.Transport{}
	}
	transport := baseTransport.Clone()
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	} else {
		transport.TLSClientConfig = transport.TLSClientConfig.Clone()
	}
	transport.TLSClientConfig.MinVersion = tls.VersionTLS12

	return &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: transport,
	}
}
