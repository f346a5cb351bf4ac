package pgqueue

// Config describes the two tables and batching knobs pgqueue.New needs on
// top of the pool-level settings in pkg/pg.Config.
type Config struct {
	TableName          string `env:"RELQ_PG_TABLE" envDefault:"relq_queue"`
	TableNameEphemeral string `env:"RELQ_PG_TABLE_EPHEMERAL" envDefault:"relq_queue_ephemeral"`

	EphemeralDisabled bool `env:"RELQ_EPHEMERAL_DISABLED" envDefault:"false"`
	EphemeralMaxSize  int  `env:"RELQ_EPHEMERAL_MAX_SIZE" envDefault:"0"`

	FIFO            bool `env:"RELQ_FIFO" envDefault:"true"`
	OrphanBatchSize int  `env:"RELQ_ORPHAN_BATCH_SIZE" envDefault:"100"`
}
