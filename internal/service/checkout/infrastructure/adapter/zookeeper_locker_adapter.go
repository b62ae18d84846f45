// internal/service/checkout/infrastructure/adapter/zookeeper_locker_adapter.go
package adapter

import (
	"fmt"
	"time"

	"bazaar/internal/pkg/zookeeper"
)

// ZookeeperLockerAdapter 用临时顺序节点锁实现 port.Locker。
type ZookeeperLockerAdapter struct {
	conn *zookeeper.Conn
	wait time.Duration
}

func NewZookeeperLockerAdapter(conn *zookeeper.Conn, wait time.Duration) *ZookeeperLockerAdapter {
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &ZookeeperLockerAdapter{conn: conn, wait: wait}
}

func (a *ZookeeperLockerAdapter) WithLock(resourceID string, fn func() error) error {
	lock, err := zookeeper.NewDistributedLock(a.conn, resourceID)
	if err != nil {
		return fmt.Errorf("create lock for %s: %w", resourceID, err)
	}
	if err := lock.Lock(a.wait); err != nil {
		return fmt.Errorf("acquire lock for %s: %w", resourceID, err)
	}
	defer lock.Unlock()
	return fn()
}
