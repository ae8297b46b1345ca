package service

import (
	"strconv"
	"strings"

	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/pkg/uui"
)

// TravelPolicy 出境策略
// 按信任等级分层配置：foreign_trips_allowed.level_<N> 给出 N 级及
// 以上用户的缺省许可，allow_except / disallow_except 按网关地址
// 列出反例。等级取不超过用户等级的最大配置档
type TravelPolicy struct {
	cfg *config.GridConfig
}

// NewTravelPolicy 创建出境策略
func NewTravelPolicy(cfg *config.GridConfig) *TravelPolicy {
	return &TravelPolicy{cfg: cfg}
}

// ForeignTripAllowed 判定用户能否前往目的网关
func (p *TravelPolicy) ForeignTripAllowed(userLevel int, gatekeeperURI string) bool {
	allowed := true
	if v, ok := closestLevelBool(p.cfg.ForeignTripsAllowed, userLevel); ok {
		allowed = v
	}

	if allowed {
		// 缺省放行，黑名单例外
		if list, ok := closestLevelList(p.cfg.DisallowExcept, userLevel); ok {
			if matchGatekeeper(list, gatekeeperURI) {
				return false
			}
		}
		return true
	}

	// 缺省禁行，白名单例外
	if list, ok := closestLevelList(p.cfg.AllowExcept, userLevel); ok {
		if matchGatekeeper(list, gatekeeperURI) {
			return true
		}
	}
	return false
}

// closestLevel 找出不超过 userLevel 的最大配置档
func closestLevel(keys []string, userLevel int) (string, bool) {
	best := -1
	bestKey := ""
	for _, key := range keys {
		n, err := strconv.Atoi(strings.TrimPrefix(key, "level_"))
		if err != nil {
			continue
		}
		if n <= userLevel && n > best {
			best = n
			bestKey = key
		}
	}
	return bestKey, best >= 0
}

func closestLevelBool(m map[string]bool, userLevel int) (bool, bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	key, ok := closestLevel(keys, userLevel)
	if !ok {
		return false, false
	}
	return m[key], true
}

func closestLevelList(m map[string]string, userLevel int) ([]string, bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	key, ok := closestLevel(keys, userLevel)
	if !ok {
		return nil, false
	}
	parts := strings.Split(m[key], ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			list = append(list, s)
		}
	}
	return list, true
}

// matchGatekeeper 归一化后精确比对网关地址
func matchGatekeeper(list []string, gatekeeperURI string) bool {
	target := uui.NormalizeURL(gatekeeperURI)
	for _, entry := range list {
		if uui.NormalizeURL(entry) == target {
			return true
		}
	}
	return false
}
