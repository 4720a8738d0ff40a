// Package netinfo discovers the addresses used to build human-shareable
// room URLs. Nothing here affects room-state correctness; a failed probe
// just means the host shares a local address.
package netinfo

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Several services, in case one is down.
var publicIPServices = []string{
	"https://api.ipify.org",
	"https://icanhazip.com",
	"https://ifconfig.me/ip",
}

type Info struct {
	LocalIP   string  `json:"local_ip"`
	PublicIP  *string `json:"public_ip"`
	Port      int     `json:"port"`
	LocalURL  string  `json:"local_url"`
	PublicURL *string `json:"public_url"`
}

type Prober struct {
	logger *zap.Logger
	http   *resty.Client
}

func NewProber(logger *zap.Logger) *Prober {
	return &Prober{
		logger: logger,
		http:   resty.New().SetTimeout(5 * time.Second),
	}
}

// LocalIP finds the interface address the default route uses. No packet is
// sent; the dial only resolves a source address.
func (p *Prober) LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// PublicIP asks external services for our address, trying each in turn.
func (p *Prober) PublicIP(ctx context.Context) (string, error) {
	for _, service := range publicIPServices {
		resp, err := p.http.R().SetContext(ctx).Get(service)
		if err != nil || resp.IsError() {
			p.logger.Debug("public ip probe failed", zap.String("service", service), zap.Error(err))
			continue
		}
		ip := strings.TrimSpace(resp.String())
		if ip != "" {
			return ip, nil
		}
	}
	return "", fmt.Errorf("could not determine public ip")
}

// Describe assembles the address info for the given serving port.
func (p *Prober) Describe(ctx context.Context, port int) Info {
	info := Info{
		LocalIP: p.LocalIP(),
		Port:    port,
	}
	info.LocalURL = fmt.Sprintf("http://%s:%d", info.LocalIP, port)

	if ip, err := p.PublicIP(ctx); err == nil {
		info.PublicIP = &ip
		url := fmt.Sprintf("http://%s:%d", ip, port)
		info.PublicURL = &url
	}
	return info
}
