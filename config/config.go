package config

type StorageType string

const STORAGE_TYPE_REDIS StorageType = "redis"
const STORAGE_TYPE_INMEM StorageType = "memory"

type Config struct {
	HttpPort         int
	AppId            string
	BackendUrl       string
	ExecutorUrl      string
	MediaUrl         string
	StorageType      StorageType
	RedisConfig      RedisStorageConfig
	WorkerCount      int
	ExecutorCapacity int
	SessionTTLMin    int
	StartPage        string
	Pages            []string
	Debug            bool
}

type RedisStorageConfig struct {
	Addrs     []string
	Namespace string
}
