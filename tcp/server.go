// Package tcp 提供通用的 TCP 服务框架，每个连接一个 goroutine，
// 支持信号触发的优雅关闭
package tcp

import (
	"context"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"raftis/config"
	"raftis/interface/tcp"
	"raftis/lib/logger"
)

type Config struct {
	Address string
}

var clientCount atomic.Int32

// ListenAndServeWithSignal 监听操作系统信号，收到退出信号后优雅关闭
func ListenAndServeWithSignal(cfg *Config, handler tcp.Handler) error {
	closeChan := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		logger.Infof("get signal %v", sig)
		closeChan <- struct{}{}
	}()
	listener, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}

	logger.Infof("bind: %s, start listening...", cfg.Address)
	ListenAndServe(listener, handler, closeChan)
	return nil
}

// ListenAndServe 在 listener 上循环接受连接，直到出错或收到关闭信号。
// 返回前等待全部在处理的连接结束
func ListenAndServe(listener net.Listener, handler tcp.Handler, closeChan <-chan struct{}) {
	errCh := make(chan error, 1)
	defer close(errCh)

	go func() {
		select {
		case <-closeChan:
			logger.Info("get exit signal")
		case err := <-errCh:
			logger.Infof("accept error: %v", err)
		}
		logger.Info("shutting down...")
		_ = listener.Close()
		_ = handler.Close()
	}()

	ctx := context.Background()
	var waitDone sync.WaitGroup

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				logger.Infof("accept occurs timeout error: %v", err)
				time.Sleep(5 * time.Millisecond)
				continue
			}
			errCh <- err
			break
		}
		if max := config.Properties.MaxClients; max > 0 && int(clientCount.Load()) >= max {
			_ = conn.Close()
			continue
		}
		logger.Debugf("accept link from %s", conn.RemoteAddr())
		clientCount.Add(1)
		waitDone.Add(1)
		go func() {
			defer func() {
				waitDone.Done()
				clientCount.Add(-1)
			}()
			handler.Handle(ctx, conn)
		}()
	}
	waitDone.Wait()
}
