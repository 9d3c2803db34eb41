package model

// Workers defines number of workers per stage
type Workers struct {
	Ingest      int `json:"ingest" yaml:"ingest"`
	Validation  int `json:"validation" yaml:"validation"`
	Aggregation int `json:"aggregation" yaml:"aggregation"`
}

// ConcurrencyConfig defines extra concurrency and job options
type ConcurrencyConfig struct {
	Workers           Workers `json:"workers" yaml:"workers"`
	ChannelBufferSize int     `json:"channelBufferSize" yaml:"channel_buffer_size"`
	JobTimeout        string  `json:"jobTimeout" yaml:"job_timeout"` // e.g., "30m"
}

// WithDefaults fills zero values from def
func (c ConcurrencyConfig) WithDefaults(def ConcurrencyConfig) ConcurrencyConfig {
	if c.Workers.Ingest <= 0 {
		c.Workers.Ingest = def.Workers.Ingest
	}
	if c.Workers.Validation <= 0 {
		c.Workers.Validation = def.Workers.Validation
	}
	if c.Workers.Aggregation <= 0 {
		c.Workers.Aggregation = def.Workers.Aggregation
	}
	if c.ChannelBufferSize <= 0 {
		c.ChannelBufferSize = def.ChannelBufferSize
	}
	if c.JobTimeout == "" {
		c.JobTimeout = def.JobTimeout
	}
	return c
}
