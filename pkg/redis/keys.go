package redis

import "fmt"

// PurchaseRateLimitKey 统一约定按用户的购买限流键名。
func PurchaseRateLimitKey(userID uint) string {
	return fmt.Sprintf("sweet_shop:rate_limit:purchase:user:%d", userID)
}

// ClientRateLimitKey 无身份时按客户端 IP 限流。
func ClientRateLimitKey(ip string) string {
	return fmt.Sprintf("sweet_shop:rate_limit:purchase:ip:%s", ip)
}
