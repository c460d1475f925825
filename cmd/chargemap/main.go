// Command chargemap は充電スタンド検索APIサーバーを起動する。
//
// 使い方:
//
//	chargemap [serve|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/chargemap/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chargemap: %v\n", err)
		os.Exit(1)
	}
}
