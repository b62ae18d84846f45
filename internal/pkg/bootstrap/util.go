// internal/pkg/bootstrap/util.go
package bootstrap

import (
	"net"
)

// outboundIP 获取本机对外通信使用的 IP，用于向注册中心上报实例地址。
// 这里并不会真的发包，只是借助路由表拿到首选出口地址。
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
