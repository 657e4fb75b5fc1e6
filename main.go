package main

import (
	"cashflow/cmd"

	"github.com/joho/godotenv"
)

// @title 个人记账系统 API
// @version 1.0
// @description 记录一次性与周期性收支，按时间窗口展开周期条目并按类别汇总
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cashflow-auth

func main() {
	// .env 可选，不存在时忽略
	_ = godotenv.Load()

	cmd.Execute()
}
