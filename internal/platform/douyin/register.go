package douyin

import (
	"fan-feed-go/internal/platform"
)

func init() {
	platform.Register("douyin", []string{"dy", "抖音"}, func(d platform.Deps) platform.Platform { return New(d) })
}
