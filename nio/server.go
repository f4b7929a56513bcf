package nio

import (
	"corochan/log"
)

var logger = log.New()
