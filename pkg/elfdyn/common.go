package elfdyn

import "github.com/hashicorp/go-hclog"

// common carries the logger shared by File, Table and the adapters.
type common struct {
	logger hclog.Logger
}

func (c *common) L() hclog.Logger {
	if c.logger == nil {
		return hclog.L().Named("elfdyn")
	}

	return c.logger
}

func (c *common) SetLogger(logger hclog.Logger) {
	c.logger = logger
}
