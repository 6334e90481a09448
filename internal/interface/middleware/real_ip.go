package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// RealIP stores the client address under "real_ip".
//
// Forwarding headers are read only when the direct peer is one of trusted
// (CIDRs or single addresses). From a trusted peer CF-Connecting-IP wins,
// then X-Forwarded-For walked from the right, skipping trusted hops.
// Anything else resolves to the peer address. Unparsable entries in
// trusted are ignored.
func RealIP(trusted ...string) gin.HandlerFunc {
	nets := ParseProxies(trusted)
	return func(c *gin.Context) {
		c.Set("real_ip", resolveIP(c, nets))
		c.Next()
	}
}

// ParseProxies turns a list of CIDRs or bare IPs into networks. A bare
// IP becomes a single-host network.
func ParseProxies(list []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, n, err := net.ParseCIDR(s); err == nil {
			nets = append(nets, n)
			continue
		}
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		bits := 128
		if v4 := ip.To4(); v4 != nil {
			ip, bits = v4, 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

func inNets(ip net.IP, nets []*net.IPNet) bool {
	for _, n := range nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func resolveIP(c *gin.Context, trusted []*net.IPNet) string {
	peer := net.ParseIP(c.RemoteIP())
	if peer == nil {
		return ""
	}
	if !inNets(peer, trusted) {
		return peer.String()
	}
	if ip := net.ParseIP(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); ip != nil {
		return ip.String()
	}

	client := peer
	hops := strings.Split(c.GetHeader("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(strings.TrimSpace(hops[i]))
		if ip == nil {
			break
		}
		client = ip
		if !inNets(ip, trusted) {
			break
		}
	}
	return client.String()
}
