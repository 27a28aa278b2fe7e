package main

import (
	"os"

	"raftis/cluster/raft"
	"raftis/config"
	"raftis/database"
	"raftis/lib/logger"
	redisServer "raftis/redis/server"
	"raftis/tcp"
)

const defaultConfigFile = "raftis.conf"

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && !info.IsDir()
}

func main() {
	logger.Setup(&logger.Settings{
		Name:  "raftis",
		Level: "info",
	})

	configFilename := os.Getenv("CONFIG")
	if configFilename == "" {
		if len(os.Args) > 1 {
			configFilename = os.Args[1]
		} else if fileExists(defaultConfigFile) {
			configFilename = defaultConfigFile
		}
	}
	if configFilename != "" {
		config.SetupConfig(configFilename)
	}

	db := database.NewServer()
	if err := db.SetupPersister(); err != nil {
		logger.Fatal("setup persister failed: ", err)
	}

	if config.Properties.UseRaft {
		node, err := raft.StartNode(&raft.Config{
			NodeID:        config.Properties.AnnounceAddress(),
			ListenAddr:    config.Properties.RaftListenAddr,
			AdvertiseAddr: config.Properties.RaftAdvertiseAddr,
			Dir:           config.Properties.RaftDir,
			Bootstrap:     config.Properties.RaftBootstrap,
		}, db)
		if err != nil {
			logger.Fatal("start raft node failed: ", err)
		}
		db.SetRaftNode(node)
		defer func() {
			if err := node.Shutdown(); err != nil {
				logger.Warnf("shutdown raft node failed: %v", err)
			}
		}()
	}

	err := tcp.ListenAndServeWithSignal(&tcp.Config{
		Address: config.Properties.AnnounceAddress(),
	}, redisServer.MakeHandler(db))
	if err != nil {
		logger.Fatal("start server failed: ", err)
	}
}
