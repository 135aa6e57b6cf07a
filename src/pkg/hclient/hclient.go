// Package hclient 是核心解析层使用的 HTTP 门面。
// 所有解析器都通过它访问网络，传输层错误在这里被归类成四个固定哨兵，
// 上层（dispatch）按哨兵匹配生成用户可见的提示文案。
package hclient

import (
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hr3lxphr6j/requests"
)

// 传输层错误哨兵。Error() 字符串是 dispatch 层的匹配依据，不要改动。
var (
	ErrConnect = errors.New("http error: Connect")
	ErrTimeout = errors.New("http error: Timeout")
	ErrDecode  = errors.New("http error: Decode")
	ErrOther   = errors.New("http error: Other")
)

const defaultTimeout = 30 * time.Second

// Client 包装 requests.Session，并在出错时返回归类后的哨兵错误
type Client struct {
	session *requests.Session
	raw     *http.Client
}

func New() *Client {
	c := &http.Client{Timeout: defaultTimeout}
	return &Client{
		session: requests.NewSession(c),
		raw:     c,
	}
}

// Get 发起 GET 请求并读出完整响应体
func (c *Client) Get(url string, options ...requests.RequestOption) (*requests.Response, []byte, error) {
	resp, err := c.session.Get(url, options...)
	if err != nil {
		return nil, nil, Classify(err)
	}
	body, err := resp.Bytes()
	if err != nil {
		return resp, nil, ErrDecode
	}
	return resp, body, nil
}

// Post 发起 POST 请求并读出完整响应体
func (c *Client) Post(url string, options ...requests.RequestOption) (*requests.Response, []byte, error) {
	resp, err := c.session.Post(url, options...)
	if err != nil {
		return nil, nil, Classify(err)
	}
	body, err := resp.Bytes()
	if err != nil {
		return resp, nil, ErrDecode
	}
	return resp, body, nil
}

// PostJSON 以 application/json 原样提交 body。
// requests 的选项不覆盖裸 JSON 体，这里直接走底层 http.Client
func (c *Client) PostJSON(url string, body string) ([]byte, error) {
	resp, err := c.raw.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrDecode
	}
	return b, nil
}

// PostForm 以 application/x-www-form-urlencoded 提交已编码好的请求体。
// 请求体是上游签名算法产出的原始查询串，不能重新编码
func (c *Client) PostForm(url string, body string) ([]byte, error) {
	resp, err := c.raw.Post(url, "application/x-www-form-urlencoded", strings.NewReader(body))
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrDecode
	}
	return b, nil
}

// Classify 把底层错误归类到固定的传输错误哨兵。
// 已经是哨兵的错误原样返回，便于上层直接 errors.Is
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrConnect, ErrTimeout, ErrDecode, ErrOther} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrConnect
	}
	return ErrOther
}
