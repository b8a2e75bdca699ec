// districtctl：离线运维工具（构建预加载缓存、导入人口表、查看缓存）
package main

import (
	"district-dash/internal/config"
	"district-dash/internal/logger"
)

func main() {
	config.LoadEnvFiles()
	logger.Setup()
	Execute()
}
