// Package remote 对外 HTTP 连接器
// 跨网格调用统一为 JSON 键值对 POST，布尔结果编码为文本
// "True"/"False"，缺键按失败处理
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pu-ac-cn/hypergrid-backend/pkg/response"
)

// 跨网格请求超时
const requestTimeout = 10 * time.Second

// Client 跨网格 HTTP 客户端
type Client struct {
	http *http.Client
}

// NewClient 创建跨网格客户端
func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: requestTimeout},
	}
}

// Call 向对方服务发 JSON 键值对并解析应答
func (c *Client) Call(ctx context.Context, url string, payload map[string]interface{}) (map[string]interface{}, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("请求 %s 返回状态 %d", url, resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析应答失败: %w", err)
	}
	return result, nil
}

// CallResult 发请求并取 result 布尔，附带 reason
func (c *Client) CallResult(ctx context.Context, url string, payload map[string]interface{}) (bool, string, error) {
	m, err := c.Call(ctx, url, payload)
	if err != nil {
		return false, "", err
	}
	reason, _ := m["reason"].(string)
	return response.ParseBool(m["result"]), reason, nil
}

// joinURL 拼接服务地址与方法路径
func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
}

// CallInto 发请求并把应答解析进给定结构
func (c *Client) CallInto(ctx context.Context, url string, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("请求 %s 失败: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("请求 %s 返回状态 %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析应答失败: %w", err)
	}
	return nil
}
