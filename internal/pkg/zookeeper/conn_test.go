package zookeeper

// Connect 接收逗号分隔的地址串并自行拆分，
// 组合根直接透传配置值。签名变更会在这里断掉。
var _ func(addrs string) (*Conn, error) = Connect
