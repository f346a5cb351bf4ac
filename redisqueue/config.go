package redisqueue

// Config describes the three structure names and batching knobs
// redisqueue.New needs on top of the client-level settings in
// pkg/redis.Config.
type Config struct {
	HashName      string `env:"RELQ_REDIS_HASH" envDefault:"queue_h"`
	ListName      string `env:"RELQ_REDIS_LIST" envDefault:"queue_l"`
	SortedSetName string `env:"RELQ_REDIS_SET" envDefault:"queue_s"`

	EphemeralDisabled bool `env:"RELQ_EPHEMERAL_DISABLED" envDefault:"false"`
	EphemeralMaxSize  int  `env:"RELQ_EPHEMERAL_MAX_SIZE" envDefault:"0"`

	OrphanBatchSize int `env:"RELQ_ORPHAN_BATCH_SIZE" envDefault:"100"`
}
