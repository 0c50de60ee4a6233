package autoload

import (
	configx "github.com/tripmind-ai/tripmind/pkg/config"
	logx "github.com/tripmind-ai/tripmind/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOGGER"))
}
