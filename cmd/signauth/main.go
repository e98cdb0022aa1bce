// signauth 是签名授权的命令行工具：生成签名、签名 URL 、签发和校验 Cookie ，以及运行演示服务。
package main

import (
	"os"

	"github.com/cmstar/go-errx"
	"github.com/fatih/color"
)

var errFmt = color.New(color.FgRed, color.Bold)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errFmt.Fprintln(os.Stderr, errx.Describe(err))
		os.Exit(1)
	}
}
