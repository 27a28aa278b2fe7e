package config

import (
	"bufio"
	"os"
	"reflect"
	"strconv"
	"strings"

	"raftis/lib/logger"
)

// ServerProperties 保存服务端全部配置项，字段通过 cfg tag
// 与 redis.conf 风格的配置文件一一对应
type ServerProperties struct {
	Bind           string `cfg:"bind"`
	Port           int    `cfg:"port"`
	Databases      int    `cfg:"databases"`
	RequirePass    string `cfg:"requirepass"`
	Dir            string `cfg:"dir"`
	MaxClients     int    `cfg:"maxclients"`
	AppendOnly     bool   `cfg:"appendonly"`
	AppendFilename string `cfg:"appendfilename"`
	AppendFsync    string `cfg:"appendfsync"`

	// raft 集群配置
	UseRaft           bool   `cfg:"use-raft"`
	RaftListenAddr    string `cfg:"raft-listen-addr"`
	RaftAdvertiseAddr string `cfg:"raft-advertise-addr"`
	RaftDir           string `cfg:"raft-dir"`
	RaftBootstrap     bool   `cfg:"raft-bootstrap"`
}

var Properties *ServerProperties

func init() {
	Properties = defaultProperties()
}

func defaultProperties() *ServerProperties {
	return &ServerProperties{
		Bind:           "127.0.0.1",
		Port:           6399,
		Databases:      16,
		AppendFilename: "appendonly.aof",
		AppendFsync:    FsyncEverySec,
		Dir:            ".",
		RaftDir:        "raft",
	}
}

const (
	FsyncAlways   = "always"
	FsyncEverySec = "everysec"
	FsyncNo       = "no"
)

// AnnounceAddress 是对客户端公布的服务地址，
// raft 模式下同时充当本节点在集群里的身份标识
func (p *ServerProperties) AnnounceAddress() string {
	return p.Bind + ":" + strconv.Itoa(p.Port)
}

// Get 按配置名读取当前配置值，未知配置名返回 false
func Get(name string) (string, bool) {
	name = strings.ToLower(name)
	t := reflect.TypeOf(Properties).Elem()
	v := reflect.ValueOf(Properties).Elem()
	for i := 0; i < t.NumField(); i++ {
		key, ok := t.Field(i).Tag.Lookup("cfg")
		if !ok || key != name {
			continue
		}
		switch t.Field(i).Type.Kind() {
		case reflect.String:
			return v.Field(i).String(), true
		case reflect.Int:
			return strconv.FormatInt(v.Field(i).Int(), 10), true
		case reflect.Bool:
			if v.Field(i).Bool() {
				return "yes", true
			}
			return "no", true
		}
	}
	return "", false
}

// Set 在运行期修改一个配置项，只接受已知的配置名
func Set(name string, value string) bool {
	name = strings.ToLower(name)
	t := reflect.TypeOf(Properties).Elem()
	v := reflect.ValueOf(Properties).Elem()
	for i := 0; i < t.NumField(); i++ {
		key, ok := t.Field(i).Tag.Lookup("cfg")
		if !ok || key != name {
			continue
		}
		switch t.Field(i).Type.Kind() {
		case reflect.String:
			v.Field(i).SetString(value)
			return true
		case reflect.Int:
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return false
			}
			v.Field(i).SetInt(intValue)
			return true
		case reflect.Bool:
			v.Field(i).SetBool(strings.EqualFold(value, "yes") || strings.EqualFold(value, "true"))
			return true
		}
	}
	return false
}

// SetupConfig 从配置文件加载配置，解析失败的行仅告警不中断
func SetupConfig(configFilename string) {
	file, err := os.Open(configFilename)
	if err != nil {
		logger.Warnf("open config file failed: %v", err)
		return
	}
	defer file.Close()
	Properties = parse(file)
}

func parse(src *os.File) *ServerProperties {
	properties := defaultProperties()
	rawMap := make(map[string]string)

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		pivot := strings.IndexAny(line, " \t")
		if pivot <= 0 || pivot >= len(line)-1 {
			continue
		}
		key := strings.ToLower(line[0:pivot])
		value := strings.TrimSpace(line[pivot+1:])
		rawMap[key] = value
	}
	if err := scanner.Err(); err != nil {
		logger.Warnf("read config file failed: %v", err)
	}

	// 按照 cfg tag 将原始键值填入结构体
	t := reflect.TypeOf(properties).Elem()
	v := reflect.ValueOf(properties).Elem()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key, ok := field.Tag.Lookup("cfg")
		if !ok {
			key = strings.ToLower(field.Name)
		}
		value, ok := rawMap[key]
		if !ok {
			continue
		}
		switch field.Type.Kind() {
		case reflect.String:
			v.Field(i).SetString(value)
		case reflect.Int:
			intValue, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				logger.Warnf("config %s expects an integer, got %s", key, value)
				continue
			}
			v.Field(i).SetInt(intValue)
		case reflect.Bool:
			v.Field(i).SetBool(strings.EqualFold(value, "yes") || strings.EqualFold(value, "true"))
		}
	}
	return properties
}
