package xhs

import (
	"fan-feed-go/internal/platform"
)

func init() {
	platform.Register("xhs", []string{"xiaohongshu", "rednotes", "red", "小红书"}, func(d platform.Deps) platform.Platform { return New(d) })
}
