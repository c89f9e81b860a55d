package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

func isLoggedIn(c *fiber.Ctx) bool {
	var fromProtected bool
	if protectedValue := c.Locals(FROM_PROTECTED); protectedValue != nil {
		fromProtected = protectedValue.(bool)
	}

	return fromProtected
}

// ExtractUsername gets the username from Locals (set by middleware)
func ExtractUsername(c *fiber.Ctx) string {
	if userNameValue := c.Locals(USER_NAME); userNameValue != nil {
		if userName, ok := userNameValue.(string); ok {
			return userName
		}
	}

	return ""
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// GetClientIP determines the actual client IP address considering proxies and dual stack
// Returns both IPv4 and IPv6 addresses if available
func GetClientIP(c *fiber.Ctx) (string, string) {
	ipv4 := ""
	ipv6 := ""

	// 1. Cloudflare header carries the original client IP
	cfIP := c.Get("CF-Connecting-IP")
	if cfIP != "" {
		if strings.Contains(cfIP, ":") {
			ipv6 = cfIP
			for _, ip := range strings.Split(c.Get("X-Forwarded-For"), ",") {
				ip = strings.TrimSpace(ip)
				if ip != "" && !strings.Contains(ip, ":") {
					ipv4 = ip
					break
				}
			}
		} else {
			ipv4 = cfIP
			for _, ip := range strings.Split(c.Get("X-Forwarded-For"), ",") {
				ip = strings.TrimSpace(ip)
				if strings.Contains(ip, ":") {
					ipv6 = ip
					break
				}
			}
		}
		return ipv4, ipv6
	}

	// 2. X-Forwarded-For: first entry is the original client
	xff := c.Get("X-Forwarded-For")
	if xff != "" {
		xffList := strings.Split(xff, ",")
		clientIP := strings.TrimSpace(xffList[0])
		if clientIP != "" {
			if strings.Contains(clientIP, ":") {
				ipv6 = clientIP
				for i := 1; i < len(xffList); i++ {
					ip := strings.TrimSpace(xffList[i])
					if ip != "" && !strings.Contains(ip, ":") {
						ipv4 = ip
						break
					}
				}
			} else {
				ipv4 = clientIP
				for i := 1; i < len(xffList); i++ {
					ip := strings.TrimSpace(xffList[i])
					if strings.Contains(ip, ":") {
						ipv6 = ip
						break
					}
				}
			}
			if ipv4 != "" && ipv6 != "" {
				return ipv4, ipv6
			}
		}
	}

	// 3. Fall back to the connection address
	ipAddr := c.IP()
	if strings.Contains(ipAddr, ":") {
		if strings.Contains(ipAddr, ".") && strings.HasPrefix(ipAddr, "::ffff:") {
			// IPv4 mapped into IPv6 form
			ipv4 = strings.TrimPrefix(ipAddr, "::ffff:")
			if realIPv6 := c.Get("X-Real-IP"); realIPv6 != "" && strings.Contains(realIPv6, ":") {
				ipv6 = realIPv6
			}
		} else {
			ipv6 = ipAddr
			if realIPv4 := c.Get("X-Real-IP"); realIPv4 != "" && !strings.Contains(realIPv4, ":") {
				ipv4 = realIPv4
			}
		}
	} else {
		ipv4 = ipAddr
		if realIPv6 := c.Get("X-Real-IP"); realIPv6 != "" && strings.Contains(realIPv6, ":") {
			ipv6 = realIPv6
		}
	}

	return ipv4, ipv6
}
