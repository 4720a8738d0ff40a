package netinfo

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalIP(t *testing.T) {
	p := NewProber(zap.NewNop())
	ip := p.LocalIP()
	require.NotEmpty(t, ip)
	assert.NotNil(t, net.ParseIP(ip))
}

func TestDescribe_WithoutPublicIP(t *testing.T) {
	p := NewProber(zap.NewNop())

	// canceled context: the public probe fails fast and only local info
	// is filled in
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	info := p.Describe(ctx, 3030)
	assert.Equal(t, 3030, info.Port)
	assert.NotEmpty(t, info.LocalIP)
	assert.Equal(t, fmt.Sprintf("http://%s:3030", info.LocalIP), info.LocalURL)
	assert.Nil(t, info.PublicIP)
	assert.Nil(t, info.PublicURL)
}
