// Package model 数据模型定义
package model

import (
	"time"
)

// TravelSession 旅行会话
// 每次登录或跨网格传送对应一条记录，绑定会话 ID、当前所在网格
// 与准入时铸造的服务令牌。ClientIPAddress 固定为最初登录时观察到
// 的地址，后续传送只换令牌和网格，不改 IP——它是防伪造校验的锚点。
type TravelSession struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	GridExternalName string    `json:"grid_external_name"` // 当前承载该化身的网格地址
	ServiceTokenHash string    `json:"service_token_hash"` // 服务令牌的 bcrypt 哈希
	ClientIPAddress  string    `json:"client_ip_address"`  // 最初登录时的客户端 IP
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
