// Package uui 跨网格用户标识（UUI）编解码
// 格式：<用户ID>;<网格地址>;<名 姓>[;<密钥>]
// 网格地址以 / 结尾，密钥段可缺省（视为空）
package uui

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// 解析相关错误
var (
	ErrEmptyUUI   = errors.New("UUI 不能为空")
	ErrInvalidUUI = errors.New("UUI 格式错误")
	ErrInvalidID  = errors.New("UUI 用户 ID 无效")
)

// UUI 跨网格用户标识
type UUI struct {
	UserID   string // 用户 ID（UUID 格式）
	GridURL  string // 归属网格地址，以 / 结尾
	Name     string // 显示名，"名 姓" 格式
	Secret   string // 共享密钥，可为空
}

// Parse 解析 UUI 字符串
// 允许缺少密钥段；ID 段必须是合法 UUID
func Parse(s string) (*UUI, error) {
	if s == "" {
		return nil, ErrEmptyUUI
	}

	parts := strings.Split(s, ";")
	if len(parts) < 3 {
		return nil, ErrInvalidUUI
	}

	if _, err := uuid.Parse(parts[0]); err != nil {
		return nil, ErrInvalidID
	}

	u := &UUI{
		UserID:  parts[0],
		GridURL: NormalizeURL(parts[1]),
		Name:    parts[2],
	}
	if len(parts) > 3 {
		u.Secret = parts[3]
	}

	return u, nil
}

// ParseID 只提取 UUI 的用户 ID 段
// 输入也可以是裸 UUID
func ParseID(s string) (string, error) {
	if s == "" {
		return "", ErrEmptyUUI
	}
	head := s
	if i := strings.Index(s, ";"); i >= 0 {
		head = s[:i]
	}
	if _, err := uuid.Parse(head); err != nil {
		return "", ErrInvalidID
	}
	return head, nil
}

// String 重建 UUI 字符串
// 密钥为空时不输出密钥段，保证与三段形式往返一致
func (u *UUI) String() string {
	base := u.UserID + ";" + u.GridURL + ";" + u.Name
	if u.Secret == "" {
		return base
	}
	return base + ";" + u.Secret
}

// FirstLast 拆分显示名为名、姓两段
func (u *UUI) FirstLast() (string, string) {
	parts := strings.SplitN(u.Name, " ", 2)
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

// UniversalName 本地展示用的外来用户名："名.姓 @主机:端口"
func (u *UUI) UniversalName() string {
	first, last := u.FirstLast()
	host := strings.TrimSuffix(u.GridURL, "/")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	return first + "." + last + " @" + host
}

// HasSecret 是否携带密钥段
func (u *UUI) HasSecret() bool {
	return u.Secret != ""
}

// MatchesSecret 校验密钥是否一致（空密钥只匹配空密钥）
func (u *UUI) MatchesSecret(secret string) bool {
	return u.Secret == secret
}

// NormalizeURL 规范化网格地址：去掉首尾空白并补上结尾 /
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return url
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return url
}
