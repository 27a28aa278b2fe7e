// Package logger 是进程级日志门面，底层使用 hashicorp/go-hclog，
// 与 raft 库共用同一条日志管线
package logger

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

var DefaultLogger = hclog.New(&hclog.LoggerOptions{
	Name:  "raftis",
	Level: hclog.Info,
	Color: hclog.AutoColor,
})

type Settings struct {
	Name  string
	Level string
}

// Setup 按配置重建默认日志器，level 取 trace/debug/info/warn/error
func Setup(settings *Settings) {
	DefaultLogger = hclog.New(&hclog.LoggerOptions{
		Name:  settings.Name,
		Level: hclog.LevelFromString(settings.Level),
		Color: hclog.AutoColor,
	})
}

// Named 派生一个带子模块名的日志器，交给 raft 等子系统使用
func Named(name string) hclog.Logger {
	return DefaultLogger.Named(name)
}

func Debug(v ...interface{}) {
	DefaultLogger.Debug(fmt.Sprint(v...))
}

func Debugf(format string, v ...interface{}) {
	DefaultLogger.Debug(fmt.Sprintf(format, v...))
}

func Info(v ...interface{}) {
	DefaultLogger.Info(fmt.Sprint(v...))
}

func Infof(format string, v ...interface{}) {
	DefaultLogger.Info(fmt.Sprintf(format, v...))
}

func Warn(v ...interface{}) {
	DefaultLogger.Warn(fmt.Sprint(v...))
}

func Warnf(format string, v ...interface{}) {
	DefaultLogger.Warn(fmt.Sprintf(format, v...))
}

func Error(v ...interface{}) {
	DefaultLogger.Error(fmt.Sprint(v...))
}

func Errorf(format string, v ...interface{}) {
	DefaultLogger.Error(fmt.Sprintf(format, v...))
}

func Fatal(v ...interface{}) {
	DefaultLogger.Error(fmt.Sprint(v...))
	os.Exit(1)
}
