package weibo

import (
	"fan-feed-go/internal/platform"
)

func init() {
	platform.Register("weibo", []string{"wb", "微博"}, func(d platform.Deps) platform.Platform { return New(d) })
}
